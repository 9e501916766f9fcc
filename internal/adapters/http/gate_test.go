package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredAccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want accessLevel
	}{
		{"/orders", accessAuthenticated},
		{"/orders/", accessAuthenticated},
		{"/orders/create", accessAuthenticated},
		{"/ordersx", accessAnonymous},
		{"/admin", accessAdmin},
		{"/admin/analytics", accessAdmin},
		{"/administrator", accessAnonymous},
		{"/products", accessAnonymous},
		{"/", accessAnonymous},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, requiredAccess(defaultAccessPolicies, tc.path), tc.path)
	}
}
