// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package registry

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"unsafe"
	"weak"

	gerrors "github.com/tochemey/actorlane/errors"
	"github.com/tochemey/actorlane/lane"
)

// identity is the address of a wrapped object together with a strong
// reference that keeps it alive while the registry works with it.
type identity struct {
	addr uintptr
	ptr  *byte
	typ  reflect.Type
}

// identify returns the identity of obj. Objects are identified by reference,
// so only non-nil pointers to non zero-sized values are accepted.
func identify(obj any) (identity, error) {
	if obj == nil {
		return identity{}, fmt.Errorf("%w: object is nil", gerrors.ErrInvalidArgument)
	}

	value := reflect.ValueOf(obj)
	if value.Kind() != reflect.Pointer || value.IsNil() {
		return identity{}, fmt.Errorf("%w: object must be a non-nil pointer, got %T", gerrors.ErrInvalidArgument, obj)
	}

	if value.Type().Elem().Size() == 0 {
		return identity{}, fmt.Errorf("%w: %T points to a zero-sized value and has no identity", gerrors.ErrInvalidArgument, obj)
	}

	ptr := (*byte)(value.UnsafePointer())
	return identity{
		addr: uintptr(unsafe.Pointer(ptr)),
		ptr:  ptr,
		typ:  value.Type(),
	}, nil
}

// entry binds a wrapped object to its lane. The object and its views are
// referenced weakly: views refer to the object, so holding them would keep the
// object alive for as long as the registry.
type entry struct {
	ref      weak.Pointer[byte]
	lane     *lane.Lane
	ownsLane bool
	cleanup  runtime.Cleanup

	mu    sync.Mutex
	views map[reflect.Type]weakView
}

type weakView struct {
	typ reflect.Type
	ref weak.Pointer[byte]
}

func (w weakView) value() (View, bool) {
	ptr := w.ref.Value()
	if ptr == nil {
		return nil, false
	}
	return reflect.NewAt(w.typ.Elem(), unsafe.Pointer(ptr)).Interface().(View), true
}

func newEntry(id identity, l *lane.Lane, ownsLane bool) *entry {
	return &entry{
		ref:      weak.Make(id.ptr),
		lane:     l,
		ownsLane: ownsLane,
		views:    make(map[reflect.Type]weakView),
	}
}

func (e *entry) refersTo(ptr *byte) bool {
	return e.ref.Value() == ptr
}

func (e *entry) view(t reflect.Type) (View, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked(t)
}

func (e *entry) viewLocked(t reflect.Type) (View, bool) {
	w, ok := e.views[t]
	if !ok {
		return nil, false
	}
	v, ok := w.value()
	if !ok {
		delete(e.views, t)
	}
	return v, ok
}

// addView records v for t unless a live view is already recorded, in which
// case that view is returned.
func (e *entry) addView(t reflect.Type, v View, id identity) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.viewLocked(t); ok {
		return existing
	}
	e.views[t] = weakView{typ: id.typ, ref: weak.Make(id.ptr)}
	return v
}

func (e *entry) snapshot() map[reflect.Type]View {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[reflect.Type]View, len(e.views))
	for t := range e.views {
		if v, ok := e.viewLocked(t); ok {
			out[t] = v
		}
	}
	return out
}

type evictKey struct {
	addr  uintptr
	entry *entry
}
