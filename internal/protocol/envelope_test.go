// internal/protocol/envelope_test.go
package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_StatusQuery(t *testing.T) {
	b, err := StatusQuery(MethodBatGetStatus)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":0,"method":"Bat.GetStatus","params":{"id":0}}`, string(b))
}

func TestEncode_GetDeviceEmptyParams(t *testing.T) {
	b, err := GetDevice()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":0,"method":"Marstek.GetDevice","params":{}}`, string(b))
}

func TestDecode_Result(t *testing.T) {
	res, err := Decode([]byte(`{"id":0,"src":"VenusC-abc","result":{"id":0,"soc":87.5,"charg_flag":true}}`))
	require.NoError(t, err)

	soc, ok := res.Number("soc")
	require.True(t, ok)
	assert.Equal(t, 87.5, soc)

	on, ok := res.Flag("charg_flag")
	require.True(t, ok)
	assert.True(t, on)
}

func TestDecode_Failures(t *testing.T) {
	cases := map[string]string{
		"invalid json":      `{"id":0,"result":`,
		"no result":         `{"id":0}`,
		"null result":       `{"id":0,"result":null}`,
		"non-object result": `{"id":0,"result":[1,2]}`,
		"error member":      `{"id":0,"error":{"code":-32601,"message":"Method not found"}}`,
		"error with result": `{"id":0,"result":{"soc":1},"error":{"code":1}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := Decode([]byte(raw))
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrDecode))

			var de *DecodeError
			assert.True(t, errors.As(err, &de))
		})
	}
}

func TestDecode_NullErrorIgnored(t *testing.T) {
	res, err := Decode([]byte(`{"id":0,"error":null,"result":{"mode":"Auto"}}`))
	require.NoError(t, err)
	mode, ok := res.Text("mode")
	require.True(t, ok)
	assert.Equal(t, "Auto", mode)
}
