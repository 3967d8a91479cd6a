package validate

import (
	"strings"
	"testing"

	"github.com/go-band-notify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_EventRequest(t *testing.T) {
	ok := domain.EventRequest{BandID: "b1", Type: domain.EventRosterChanged, Title: "Roster out"}
	assert.NoError(t, Struct(ok))

	long := ok
	long.Title = strings.Repeat("x", 201)
	err := Struct(long)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "field 'Title' failed 'max'")
}

func TestStruct_RegisterTokenRequest(t *testing.T) {
	err := Struct(domain.RegisterTokenRequest{Token: "abc", Platform: "blackberry"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'oneof'")

	assert.NoError(t, Struct(domain.RegisterTokenRequest{Token: "abc", Platform: domain.PlatformWeb}))
}
