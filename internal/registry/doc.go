// Package registry holds the static table that maps a shared object's kind to
// the operations its proxy forwards, the scoped-acquisition binding it needs,
// and the inspector format hint it carries.
//
// Objects declare their kind explicitly through the Tagged interface; nothing
// here inspects concrete types at run time.
package registry
