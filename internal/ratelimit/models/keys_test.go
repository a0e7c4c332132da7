package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rfcheck/pkg/domain"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "anonymous:203.0.113.7:validate", Key(domain.CallerAnonymous, "203.0.113.7", OperationValidate))
	assert.Equal(t, "anonymous:2001_db8__1:bulk", Key(domain.CallerAnonymous, "2001:db8::1", OperationBulk))
	assert.Equal(t, "user:user_admin:validate", Key(domain.CallerUser, "user:admin", OperationValidate))
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation("bulk")
	assert.NoError(t, err)
	assert.Equal(t, OperationBulk, op)

	_, err = ParseOperation("delete")
	assert.Error(t, err)
}
