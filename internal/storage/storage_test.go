package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanImageKey(t *testing.T) {
	const plan = "65f0c0ffee0000000000abcd"

	key := PlanImageKey(plan, ".png")
	require.True(t, strings.HasPrefix(key, "plans/"+plan+"/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotContains(t, strings.TrimSuffix(key, ".png"), "..")
	assert.NotEqual(t, key, PlanImageKey(plan, "png"))
}

func TestOwnsKey(t *testing.T) {
	const plan = "65f0c0ffee0000000000abcd"

	tests := []struct {
		key  string
		want bool
	}{
		{PlanImageKey(plan, "jpeg"), true},
		{"plans/" + plan + "/a.png", true},
		{"plans/" + plan + "/", false},
		{"plans/" + plan + "/nested/a.png", false},
		{"plans/65f0c0ffee0000000000ffff/a.png", false},
		{"plans/" + plan + "a.png", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OwnsKey(plan, tt.key), tt.key)
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"", true, ""},
		{"localhost:9000", false, "http://localhost:9000"},
		{"minio.internal:9000/", true, "https://minio.internal:9000"},
		{"https://fra1.digitaloceanspaces.com", false, "https://fra1.digitaloceanspaces.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EndpointURL(tt.endpoint, tt.useSSL), tt.endpoint)
	}
}
