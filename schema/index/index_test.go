package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/quarry/schema/index"
)

func TestFields(t *testing.T) {
	tests := []struct {
		name    string
		builder *index.Builder
		want    index.Descriptor
		err     string
	}{
		{
			name:    "composite",
			builder: index.Fields("owner_id", "name"),
			want:    index.Descriptor{Fields: []string{"owner_id", "name"}},
		},
		{
			name:    "unique",
			builder: index.Fields("email").Unique(),
			want:    index.Descriptor{Fields: []string{"email"}, Unique: true},
		},
		{
			name:    "named",
			builder: index.Fields("email").StorageKey("uniq_email").Unique(),
			want:    index.Descriptor{Fields: []string{"email"}, Unique: true, StorageKey: "uniq_email"},
		},
		{
			name:    "empty",
			builder: index.Fields(),
			err:     "index: no fields",
		},
		{
			name:    "repeated",
			builder: index.Fields("a", "b", "a"),
			err:     `index: field "a" listed twice`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.builder.Descriptor()
			if tt.err != "" {
				assert.EqualError(t, d.Err, tt.err)
				return
			}
			assert.NoError(t, d.Err)
			assert.Equal(t, tt.want, *d)
		})
	}
}
