package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("mainDetail.prices[0].price")
	require.NoError(t, err)
	assert.Equal(t, "mainDetail.prices[0].price", p.String())
	assert.False(t, p.HasWildcard())

	p, err = ParsePath("variants[].sku")
	require.NoError(t, err)
	assert.True(t, p.HasWildcard())

	for _, bad := range []string{
		"",
		"prices[x].price",
		"prices[-1]",
		"prices[0",
		"[0].price",
		"images[].",
	} {
		_, err := ParsePath(bad)
		assert.Error(t, err, "path %q should not parse", bad)
	}
}

func TestGetScalar(t *testing.T) {
	record := map[string]interface{}{
		"name": "Trekking Bike",
		"mainDetail": map[string]interface{}{
			"number": "SW10001",
			"prices": []interface{}{
				map[string]interface{}{"price": 499.99},
				map[string]interface{}{"price": 459.99},
			},
		},
	}

	v, ok := Get(record, "name")
	require.True(t, ok)
	assert.Equal(t, "Trekking Bike", v)

	v, ok = Get(record, "mainDetail.number")
	require.True(t, ok)
	assert.Equal(t, "SW10001", v)

	v, ok = Get(record, "mainDetail.prices[1].price")
	require.True(t, ok)
	assert.Equal(t, 459.99, v)
}

func TestGetAbsent(t *testing.T) {
	record := map[string]interface{}{
		"mainDetail": map[string]interface{}{
			"prices": []interface{}{
				map[string]interface{}{"price": 499.99},
			},
		},
	}

	for _, path := range []string{
		"missing",
		"mainDetail.missing",
		"mainDetail.number.inner",
		"mainDetail.prices[3].price",
		"mainDetail.prices[0].missing",
	} {
		_, ok := Get(record, path)
		assert.False(t, ok, "path %q should be absent", path)
	}
}

func TestGetWildcard(t *testing.T) {
	record := map[string]interface{}{
		"images": []interface{}{
			map[string]interface{}{"path": "a.jpg"},
			map[string]interface{}{"path": "b.jpg"},
			map[string]interface{}{"alt": "no path here"},
		},
	}

	v, ok := Get(record, "images[].path")
	require.True(t, ok)
	// The element without a path is skipped, not emitted as nil.
	assert.Equal(t, []interface{}{"a.jpg", "b.jpg"}, v)
}

func TestGetWildcardEmptyArray(t *testing.T) {
	record := map[string]interface{}{
		"images": []interface{}{},
	}

	v, ok := Get(record, "images[].path")
	require.True(t, ok)
	assert.Equal(t, []interface{}{}, v)
}

func TestGetNestedWildcard(t *testing.T) {
	record := map[string]interface{}{
		"orders": []interface{}{
			map[string]interface{}{
				"details": []interface{}{
					map[string]interface{}{"articleNumber": "SW10001"},
					map[string]interface{}{"articleNumber": "SW10002"},
				},
			},
			map[string]interface{}{
				"details": []interface{}{
					map[string]interface{}{"articleNumber": "SW10003"},
				},
			},
		},
	}

	v, ok := Get(record, "orders[].details[].articleNumber")
	require.True(t, ok)
	assert.Equal(t, []interface{}{"SW10001", "SW10002", "SW10003"}, v)
}

func TestSetCreatesContainers(t *testing.T) {
	record := map[string]interface{}{}

	require.NoError(t, Set(record, "seo.title", "Bike"))
	require.NoError(t, Set(record, "images[1].src", "b.jpg"))

	v, ok := Get(record, "seo.title")
	require.True(t, ok)
	assert.Equal(t, "Bike", v)

	// Index writes grow the array with nil padding.
	images := record["images"].([]interface{})
	require.Len(t, images, 2)
	assert.Nil(t, images[0])

	v, ok = Get(record, "images[1].src")
	require.True(t, ok)
	assert.Equal(t, "b.jpg", v)
}

func TestSetRoundTrip(t *testing.T) {
	record := map[string]interface{}{}

	require.NoError(t, Set(record, "a.b.c", 42))

	v, ok := Get(record, "a.b.c")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestSetGetIsNoOp(t *testing.T) {
	record := map[string]interface{}{
		"name": "Bike",
		"mainDetail": map[string]interface{}{
			"number": "SW10001",
			"prices": []interface{}{
				map[string]interface{}{"price": 499.99},
			},
		},
	}

	// Writing back what was read leaves the record unchanged.
	for _, path := range []string{"name", "mainDetail.number", "mainDetail.prices[0].price"} {
		v, ok := Get(record, path)
		require.True(t, ok)
		require.NoError(t, Set(record, path, v))
	}

	assert.Equal(t, map[string]interface{}{
		"name": "Bike",
		"mainDetail": map[string]interface{}{
			"number": "SW10001",
			"prices": []interface{}{
				map[string]interface{}{"price": 499.99},
			},
		},
	}, record)
}

func TestSetWildcardFansOut(t *testing.T) {
	record := map[string]interface{}{
		"variants": []interface{}{
			map[string]interface{}{"sku": "A"},
			map[string]interface{}{"sku": "B"},
		},
	}

	// Same-length list: element i goes to variant i.
	require.NoError(t, Set(record, "variants[].price", []interface{}{10, 20}))

	v, ok := Get(record, "variants[].price")
	require.True(t, ok)
	assert.Equal(t, []interface{}{10, 20}, v)

	// Scalar: applied to every element.
	require.NoError(t, Set(record, "variants[].taxable", true))

	v, ok = Get(record, "variants[].taxable")
	require.True(t, ok)
	assert.Equal(t, []interface{}{true, true}, v)
}

func TestSetWildcardNeverGrows(t *testing.T) {
	record := map[string]interface{}{
		"variants": []interface{}{},
	}

	require.NoError(t, Set(record, "variants[].price", 10))
	assert.Empty(t, record["variants"])

	// A wildcard write into a missing array is a no-op too.
	delete(record, "variants")
	require.NoError(t, Set(record, "variants[].price", 10))
	_, ok := record["variants"]
	assert.False(t, ok)
}
