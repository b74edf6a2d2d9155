package password

import (
	"testing"

	"blog-platform/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMinLength(t *testing.T) {
	policy := Policy{MinLength: 8}

	err := Validate(policy, "short")
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Contains(t, appErr.Message, "8 characters")

	assert.NoError(t, Validate(policy, "longenough"))
}

func TestValidateRuleOrder(t *testing.T) {
	// All rules enabled: the first failing rule wins.
	policy := Policy{MinLength: 8, RequireUppercase: true, RequireNumber: true, RequireSpecial: true}

	err := Validate(policy, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "8 characters")

	err = Validate(policy, "abcdefgh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uppercase")

	err = Validate(policy, "Abcdefgh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "number")

	err = Validate(policy, "Abcdefg1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "special")

	assert.NoError(t, Validate(policy, "Abcdefg1!"))
}

func TestValidateTenantScenario(t *testing.T) {
	// minLength 8, uppercase and number required, special not.
	policy := Policy{MinLength: 8, RequireUppercase: true, RequireNumber: true}

	assert.Error(t, Validate(policy, "abcdefgh"), "no uppercase or number")
	assert.NoError(t, Validate(policy, "Abcdefg1"))
}

func TestValidateTogglesAreIndependent(t *testing.T) {
	// Disabling one rule must never admit a password rejected for
	// another reason.
	strict := Policy{MinLength: 8, RequireUppercase: true, RequireNumber: true, RequireSpecial: true}
	noSpecial := strict
	noSpecial.RequireSpecial = false

	candidate := "abcdefgh" // fails uppercase under both
	assert.Error(t, Validate(strict, candidate))
	assert.Error(t, Validate(noSpecial, candidate))

	noUpper := strict
	noUpper.RequireUppercase = false
	assert.Error(t, Validate(noUpper, "abcdefgh"), "still fails the number rule")
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Sup3rSecret!")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret!", hash)

	assert.True(t, Verify(hash, "Sup3rSecret!"))
	assert.False(t, Verify(hash, "sup3rsecret!"))
	assert.False(t, Verify("not-a-hash", "Sup3rSecret!"))
}
