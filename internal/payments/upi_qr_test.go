package payments

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"gstinvoice/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUPIIntent_Format(t *testing.T) {
	intent, err := UPIIntent("acme@okbank", "Acme Traders & Sons", 2360, "007")
	require.NoError(t, err)
	assert.Equal(t,
		"upi://pay?pa=acme@okbank&pn=Acme%20Traders%20%26%20Sons&am=2360.00&cu=INR&tn=Payment for Inv-007",
		intent)
}

func TestUPIIntent_AmountRounding(t *testing.T) {
	intent, err := UPIIntent("a@b", "A", 1044.456, "1")
	require.NoError(t, err)
	assert.Contains(t, intent, "&am=1044.46&")
}

func TestEncodeURIComponent(t *testing.T) {
	assert.Equal(t, "Ravi's%20Shop%20(Pune)!", encodeURIComponent("Ravi's Shop (Pune)!"))
	assert.Equal(t, "a%2Fb%3Fc%3Dd", encodeURIComponent("a/b?c=d"))
	assert.Equal(t, "%E2%82%B9", encodeURIComponent("₹"))
}

func TestUPIIntent_MissingConfiguration(t *testing.T) {
	_, err := UPIIntent("", "Acme", 10, "001")
	assert.True(t, errors.Is(err, common.ErrConfiguration))

	_, err = UPIIntent("acme@ok", "  ", 10, "001")
	assert.True(t, errors.Is(err, common.ErrConfiguration))

	_, err = UPIIntent("acme@ok", "Acme", -1, "001")
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestQRBuilder_BuildIsDeterministic(t *testing.T) {
	qb := NewQRBuilder(0)

	first, err := qb.Build("acme@okbank", "Acme", 100.5, "012")
	require.NoError(t, err)
	second, err := qb.Build("acme@okbank", "Acme", 100.5, "012")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(first.PNG, []byte("\x89PNG\r\n\x1a\n")))
	assert.Equal(t, first.PNG, second.PNG)
	assert.Equal(t, first.Intent, second.Intent)
	assert.True(t, strings.HasPrefix(first.DataURI(), "data:image/png;base64,"))
}

func TestQRBuilder_BuildWithoutUPI(t *testing.T) {
	qr, err := NewQRBuilder(128).Build("", "Acme", 100, "001")
	assert.Nil(t, qr)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}
