package instance

import (
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

var (
	once sync.Once
	id   string
)

// GetID returns STOREFRONT_INSTANCE_ID when set, otherwise hostname plus a
// short random suffix that stays stable for the life of the process.
func GetID() string {
	once.Do(func() {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "storefront"
		}
		id = env.Get("INSTANCE_ID", host+"-"+uuid.NewString()[:8])
	})
	return id
}
