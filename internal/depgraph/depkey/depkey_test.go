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

package depkey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstructorsValid(t *testing.T) {
	t.Parallel()

	_, err := TopLevel("a")
	require.NoError(t, err)

	_, err = Nominal("MyType")
	require.NoError(t, err)

	_, err = PotentialMember("MyType")
	require.NoError(t, err)

	_, err = Member("MyType", "field")
	require.NoError(t, err)

	_, err = DynamicLookup("dispatch")
	require.NoError(t, err)

	_, err = ExternalDepend("/foo")
	require.NoError(t, err)

	_, err = SourceFileProvide("foo.ext")
	require.NoError(t, err)
}

func TestEmptinessConstraints(t *testing.T) {
	t.Parallel()

	_, err := NewKey(AspectInterface, Designator{Kind: KindTopLevel, Name: ""})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = NewKey(AspectInterface, Designator{Kind: KindTopLevel, Context: "X", Name: "a"})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = NewKey(AspectInterface, Designator{Kind: KindNominal, Context: ""})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = NewKey(AspectInterface, Designator{Kind: KindNominal, Context: "X", Name: "y"})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = NewKey(AspectInterface, Designator{Kind: KindMember, Context: "X"})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = NewKey(AspectInterface, Designator{Kind: KindMember, Name: "y"})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestUnknownKindFromCode(t *testing.T) {
	t.Parallel()
	_, err := KindFromCode(7)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMalformed))
}

func TestCodeRoundTrip(t *testing.T) {
	t.Parallel()
	for code := uint8(0); code < numKinds; code++ {
		kind, err := KindFromCode(code)
		require.NoError(t, err)
		require.Equal(t, code, kind.Code())
	}
}

func TestCorrespondingImplementation(t *testing.T) {
	t.Parallel()
	k, err := TopLevel("a")
	require.NoError(t, err)

	impl, ok := k.CorrespondingImplementation()
	require.True(t, ok)
	require.Equal(t, AspectImplementation, impl.Aspect)
	require.Equal(t, k.Designator, impl.Designator)

	_, ok = impl.CorrespondingImplementation()
	require.False(t, ok)
}

func TestLessOrdering(t *testing.T) {
	t.Parallel()
	a, err := TopLevel("a")
	require.NoError(t, err)
	b, err := TopLevel("b")
	require.NoError(t, err)
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))

	interfaceKey, err := Nominal("X")
	require.NoError(t, err)
	implKey := interfaceKey.WithImplementationAspect()
	require.True(t, interfaceKey.Less(implKey))
}

func TestIsExternalDependAndPath(t *testing.T) {
	t.Parallel()
	k, err := ExternalDepend("/foo/bar")
	require.NoError(t, err)
	require.True(t, k.IsExternalDepend())
	path, ok := k.ExternalPath()
	require.True(t, ok)
	require.Equal(t, "/foo/bar", path)

	other, err := TopLevel("a")
	require.NoError(t, err)
	require.False(t, other.IsExternalDepend())
	_, ok = other.ExternalPath()
	require.False(t, ok)
}

func TestKeyComparable(t *testing.T) {
	t.Parallel()
	k1, err := Nominal("X")
	require.NoError(t, err)
	k2, err := Nominal("X")
	require.NoError(t, err)
	m := map[Key]int{k1: 1}
	m[k2] = 2
	require.Len(t, m, 1)
}
