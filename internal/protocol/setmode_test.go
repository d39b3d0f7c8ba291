// internal/protocol/setmode_test.go
package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetMode_Encodings(t *testing.T) {
	cases := []struct {
		name string
		cfg  ModeConfig
		want string
	}{
		{
			name: "auto",
			cfg:  AutoMode(),
			want: `{"mode":"Auto","auto_cfg":{"enable":1}}`,
		},
		{
			name: "ai",
			cfg:  AIMode(),
			want: `{"mode":"AI","ai_cfg":{"enable":1}}`,
		},
		{
			name: "ups",
			cfg:  UPSMode(),
			want: `{"mode":"Manual","manual_cfg":{"time_num":1,"start_time":"00:00","end_time":"23:59","week_set":127,"power":-2500,"enable":1}}`,
		},
		{
			name: "passive",
			cfg:  PassiveMode(800, 300),
			want: `{"mode":"Passive","passive_cfg":{"power":800,"cd_time":300}}`,
		},
		{
			name: "manual",
			cfg:  ManualMode(0, "08:00", "20:00", 127, -1000),
			want: `{"mode":"Manual","manual_cfg":{"time_num":0,"start_time":"08:00","end_time":"20:00","week_set":127,"power":-1000,"enable":1}}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := SetMode(tc.cfg)
			require.NoError(t, err)
			assert.JSONEq(t,
				`{"id":0,"method":"ES.SetMode","params":{"id":0,"config":`+tc.want+`}}`,
				string(b),
			)
		})
	}
}

func TestSetResult(t *testing.T) {
	cases := map[string]bool{
		`{"result":{"set_result":true}}`:  true,
		`{"result":{"set_result":false}}`: false,
		`{"result":{"set_result":1}}`:     true,
		`{"result":{"id":0}}`:             false,
		`{"result":{"set_result":null}}`:  false,
	}
	for raw, want := range cases {
		res, err := Decode([]byte(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, want, SetResult(res), raw)
	}
}
