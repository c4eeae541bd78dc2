package tauq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStreamingEquivalence asserts spec.md §8 property 6: streaming a
// document-scope rows region yields exactly the same sequence ParseToValue
// produces at the root.
func TestStreamingEquivalence(t *testing.T) {
	text := "!def User id name\n1 Alice\n2 Bob\n3 Carol\n"
	want, err := ParseToValue(text)
	require.NoError(t, err)

	rs, err := StreamRecords(text, nil)
	require.NoError(t, err)

	var got []Value
	for {
		v, ok := rs.Next()
		if !ok {
			break
		}
		got = append(got, v)
	}
	require.NoError(t, rs.Err())
	assert.True(t, Equal(want, Array(got...)))
}

func TestStreamRecordsByFieldPath(t *testing.T) {
	text := "!def User id name\n---\nusers [\n  !use User\n  1 Alice\n  2 Bob\n]\n"
	rs, err := StreamRecords(text, []string{"users"})
	require.NoError(t, err)

	var names []string
	for {
		v, ok := rs.Next()
		if !ok {
			break
		}
		n, _ := v.Get("name")
		s, _ := n.Str()
		names = append(names, s)
	}
	require.NoError(t, rs.Err())
	assert.Equal(t, []string{"Alice", "Bob"}, names)
}

func TestStreamRecordsUnknownFieldErrors(t *testing.T) {
	_, err := StreamRecords("key value\n", []string{"missing"})
	require.Error(t, err)
}

// TestStreamingErrorTerminates asserts spec.md §4.C: after a failure the
// sequence ends, and Err reports the terminal error.
func TestStreamingErrorTerminates(t *testing.T) {
	rs, err := StreamRecords("!def U id name\n1\n", nil)
	require.NoError(t, err)
	_, ok := rs.Next()
	assert.False(t, ok)
	require.Error(t, rs.Err())

	_, ok = rs.Next()
	assert.False(t, ok)
}
