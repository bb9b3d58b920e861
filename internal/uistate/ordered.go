package uistate

import "container/list"

// orderedItems keeps service items keyed by id with insertion order preserved.
type orderedItems struct {
	index map[string]*list.Element
	order *list.List
}

func newOrderedItems() *orderedItems {
	return &orderedItems{
		index: make(map[string]*list.Element),
		order: list.New(),
	}
}

func (o *orderedItems) get(id string) (ServiceCartItem, bool) {
	el, ok := o.index[id]
	if !ok {
		return ServiceCartItem{}, false
	}
	return el.Value.(ServiceCartItem), true
}

func (o *orderedItems) append(item ServiceCartItem) {
	o.index[item.ID] = o.order.PushBack(item)
}

// replace overwrites an existing entry without moving it.
func (o *orderedItems) replace(item ServiceCartItem) bool {
	el, ok := o.index[item.ID]
	if !ok {
		return false
	}
	el.Value = item
	return true
}

func (o *orderedItems) remove(id string) bool {
	el, ok := o.index[id]
	if !ok {
		return false
	}
	o.order.Remove(el)
	delete(o.index, id)
	return true
}

func (o *orderedItems) clear() {
	o.index = make(map[string]*list.Element)
	o.order.Init()
}

func (o *orderedItems) len() int {
	return o.order.Len()
}

func (o *orderedItems) values() []ServiceCartItem {
	out := make([]ServiceCartItem, 0, o.order.Len())
	for el := o.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(ServiceCartItem).clone())
	}
	return out
}
