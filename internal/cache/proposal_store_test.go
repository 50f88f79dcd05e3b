package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProposalStoreKeyNamespacing(t *testing.T) {
	assert.Equal(t, "schedule_proposal:batch-42", key("batch-42"))
}
