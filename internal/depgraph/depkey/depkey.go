// Copyright 2020 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package depkey implements the dependency key: the (aspect, designator)
// pair that identifies a declaration, file provide, or file depend in the
// module dependency graph.
package depkey

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned by the New* constructors when a Designator's
// Context/Name fields violate the emptiness constraints for its Kind.
var ErrMalformed = errors.New("depkey: malformed designator")

// Aspect distinguishes interface changes (which cascade to users) from
// implementation changes (which do not).
type Aspect uint8

const (
	// AspectInterface marks a key whose change invalidates users.
	AspectInterface Aspect = iota
	// AspectImplementation marks a key whose change does not invalidate users.
	AspectImplementation
)

// String returns a human-readable name for the Aspect.
func (a Aspect) String() string {
	switch a {
	case AspectInterface:
		return "interface"
	case AspectImplementation:
		return "implementation"
	default:
		return fmt.Sprintf("Aspect(%d)", uint8(a))
	}
}

// DesignatorKind is the closed set of designator cases. Values 0..6 are
// stable serialization codes; see §6 of the design for the binary layout.
type DesignatorKind uint8

const (
	// KindTopLevel is a global name.
	KindTopLevel DesignatorKind = iota
	// KindNominal is a named type; Context is its mangled name.
	KindNominal
	// KindPotentialMember is an open-ended member lookup on a type.
	KindPotentialMember
	// KindMember is a specific member of a type.
	KindMember
	// KindDynamicLookup is a dynamic dispatch site.
	KindDynamicLookup
	// KindExternalDepend is a file outside this build.
	KindExternalDepend
	// KindSourceFileProvide marks an entire source file's dependency record.
	KindSourceFileProvide
)

// numKinds is the count of valid DesignatorKind values.
const numKinds = 7

// Code returns the stable serialization code for the kind, in [0,6].
func (k DesignatorKind) Code() uint8 {
	return uint8(k)
}

// KindFromCode maps a stable serialization code back to a DesignatorKind.
// Returns an error wrapping ErrMalformed if code is not in [0,6].
func KindFromCode(code uint8) (DesignatorKind, error) {
	if code >= numKinds {
		return 0, fmt.Errorf("%w: unknown designator code %d", ErrMalformed, code)
	}
	return DesignatorKind(code), nil
}

// String returns a human-readable name for the DesignatorKind.
func (k DesignatorKind) String() string {
	switch k {
	case KindTopLevel:
		return "topLevel"
	case KindNominal:
		return "nominal"
	case KindPotentialMember:
		return "potentialMember"
	case KindMember:
		return "member"
	case KindDynamicLookup:
		return "dynamicLookup"
	case KindExternalDepend:
		return "externalDepend"
	case KindSourceFileProvide:
		return "sourceFileProvide"
	default:
		return fmt.Sprintf("DesignatorKind(%d)", uint8(k))
	}
}

// requiresContext reports whether Kind requires a non-empty Context.
func (k DesignatorKind) requiresContext() bool {
	switch k {
	case KindNominal, KindPotentialMember, KindMember:
		return true
	default:
		return false
	}
}

// requiresName reports whether Kind requires a non-empty Name.
func (k DesignatorKind) requiresName() bool {
	switch k {
	case KindTopLevel, KindMember, KindDynamicLookup, KindExternalDepend, KindSourceFileProvide:
		return true
	default:
		return false
	}
}

// Designator is a tagged value identifying a declaration, file provide, or
// file depend. Context and Name are populated according to Kind; see the
// New* constructors for the emptiness constraints enforced per Kind.
type Designator struct {
	Kind    DesignatorKind
	Context string // mangled type name; empty unless Kind requires it
	Name    string // empty unless Kind requires it
}

// validate checks d against the emptiness constraints for its Kind.
func (d Designator) validate() error {
	if d.Kind >= numKinds {
		return fmt.Errorf("%w: unknown designator kind %d", ErrMalformed, uint8(d.Kind))
	}
	if d.Kind.requiresContext() && d.Context == "" {
		return fmt.Errorf("%w: %s requires non-empty context", ErrMalformed, d.Kind)
	}
	if !d.Kind.requiresContext() && d.Context != "" {
		return fmt.Errorf("%w: %s must have empty context", ErrMalformed, d.Kind)
	}
	if d.Kind.requiresName() && d.Name == "" {
		return fmt.Errorf("%w: %s requires non-empty name", ErrMalformed, d.Kind)
	}
	if !d.Kind.requiresName() && d.Name != "" {
		return fmt.Errorf("%w: %s must have empty name", ErrMalformed, d.Kind)
	}
	return nil
}

// String returns a human-readable rendition of the designator.
func (d Designator) String() string {
	switch d.Kind {
	case KindNominal, KindPotentialMember:
		return fmt.Sprintf("%s(%s)", d.Kind, d.Context)
	case KindMember:
		return fmt.Sprintf("%s(%s, %s)", d.Kind, d.Context, d.Name)
	default:
		return fmt.Sprintf("%s(%s)", d.Kind, d.Name)
	}
}

// less orders designators by (Kind, Context, Name), giving a deterministic
// total order within a single Aspect.
func (d Designator) less(o Designator) bool {
	if d.Kind != o.Kind {
		return d.Kind < o.Kind
	}
	if d.Context != o.Context {
		return d.Context < o.Context
	}
	return d.Name < o.Name
}

// Key is the (aspect, designator) pair that identifies a node's defining
// coordinate in the module dependency graph. Key is comparable and may be
// used directly as a map key.
type Key struct {
	Aspect     Aspect
	Designator Designator
}

// TopLevel returns the interface-aspect key for a global name.
func TopLevel(name string) (Key, error) {
	return newKey(AspectInterface, Designator{Kind: KindTopLevel, Name: name})
}

// Nominal returns the interface-aspect key for a named type.
func Nominal(context string) (Key, error) {
	return newKey(AspectInterface, Designator{Kind: KindNominal, Context: context})
}

// PotentialMember returns the interface-aspect key for an open-ended member
// lookup on a type.
func PotentialMember(context string) (Key, error) {
	return newKey(AspectInterface, Designator{Kind: KindPotentialMember, Context: context})
}

// Member returns the interface-aspect key for a specific member of a type.
func Member(context, name string) (Key, error) {
	return newKey(AspectInterface, Designator{Kind: KindMember, Context: context, Name: name})
}

// DynamicLookup returns the interface-aspect key for a dynamic dispatch site.
func DynamicLookup(name string) (Key, error) {
	return newKey(AspectInterface, Designator{Kind: KindDynamicLookup, Name: name})
}

// ExternalDepend returns the interface-aspect key for a file outside this
// build, identified by path.
func ExternalDepend(path string) (Key, error) {
	return newKey(AspectInterface, Designator{Kind: KindExternalDepend, Name: path})
}

// SourceFileProvide returns the interface-aspect key marking an entire
// source file's dependency record, identified by name.
func SourceFileProvide(name string) (Key, error) {
	return newKey(AspectInterface, Designator{Kind: KindSourceFileProvide, Name: name})
}

// InterfaceFor is a convenience constructor for an externalDepend key with
// interface aspect, used when recording newly discovered external
// dependencies during integration.
func InterfaceFor(path string) (Key, error) {
	return ExternalDepend(path)
}

// NewKey constructs and validates a Key from raw parts. Most callers should
// prefer the typed constructors (TopLevel, Nominal, and so on); NewKey
// exists for deserialization, where the aspect and designator are read off
// the wire together.
func NewKey(aspect Aspect, designator Designator) (Key, error) {
	return newKey(aspect, designator)
}

func newKey(aspect Aspect, designator Designator) (Key, error) {
	if err := designator.validate(); err != nil {
		return Key{}, err
	}
	return Key{Aspect: aspect, Designator: designator}, nil
}

// WithImplementationAspect returns k with its aspect forced to
// implementation, regardless of k's current aspect.
func (k Key) WithImplementationAspect() Key {
	k.Aspect = AspectImplementation
	return k
}

// CorrespondingImplementation returns the implementation-aspect key sharing
// k's designator, and true, if k is an interface-aspect key. Otherwise it
// returns the zero Key and false.
func (k Key) CorrespondingImplementation() (Key, bool) {
	if k.Aspect != AspectInterface {
		return Key{}, false
	}
	return k.WithImplementationAspect(), true
}

// Less reports whether k sorts before o under the deterministic total order
// used for tracing: aspect, then designator kind, then context, then name.
func (k Key) Less(o Key) bool {
	if k.Aspect != o.Aspect {
		return k.Aspect < o.Aspect
	}
	return k.Designator.less(o.Designator)
}

// String returns a human-readable rendition of the key.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Aspect, k.Designator)
}

// IsExternalDepend reports whether k's designator is an externalDepend case.
func (k Key) IsExternalDepend() bool {
	return k.Designator.Kind == KindExternalDepend
}

// ExternalPath returns the path for an externalDepend key, and true. For any
// other kind it returns "", false.
func (k Key) ExternalPath() (string, bool) {
	if !k.IsExternalDepend() {
		return "", false
	}
	return k.Designator.Name, true
}
