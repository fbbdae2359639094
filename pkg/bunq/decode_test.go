package bunq

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flatTarget struct {
	Alpha *struct {
		N int `json:"n"`
	} `json:"Alpha"`
	Beta *struct {
		S string `json:"s"`
	} `json:"Beta"`
	Gamma *struct {
		B bool `json:"b"`
	} `json:"Gamma"`
}

func TestDecodeFlattened_MergesSingleKeyObjects(t *testing.T) {
	orders := [][]string{
		{`{"Alpha":{"n":1}}`, `{"Beta":{"s":"x"}}`, `{"Gamma":{"b":true}}`},
		{`{"Gamma":{"b":true}}`, `{"Alpha":{"n":1}}`, `{"Beta":{"s":"x"}}`},
		{`{"Beta":{"s":"x"}}`, `{"Gamma":{"b":true}}`, `{"Alpha":{"n":1}}`},
	}

	for i, order := range orders {
		t.Run(fmt.Sprintf("order_%d", i), func(t *testing.T) {
			body := fmt.Sprintf(`{"Response":[%s,%s,%s],"Pagination":null}`, order[0], order[1], order[2])

			res, err := Decode[flatTarget]([]byte(body), ModeFlattened)
			require.NoError(t, err)
			require.NotNil(t, res.Value.Alpha)
			require.NotNil(t, res.Value.Beta)
			require.NotNil(t, res.Value.Gamma)
			assert.Equal(t, 1, res.Value.Alpha.N)
			assert.Equal(t, "x", res.Value.Beta.S)
			assert.True(t, res.Value.Gamma.B)
			assert.Nil(t, res.Pagination)
		})
	}
}

func TestDecodeFlattened_MergedMapHasExactlyTheInputPairs(t *testing.T) {
	body := `{"Response":[{"Id":{"id":7}},{"Token":{"token":"abc"}},{"ServerPublicKey":{"server_public_key":"pk"}}]}`

	res, err := Decode[map[string]json.RawMessage]([]byte(body), ModeFlattened)
	require.NoError(t, err)
	require.Len(t, res.Value, 3)
	assert.JSONEq(t, `{"id":7}`, string(res.Value["Id"]))
	assert.JSONEq(t, `{"token":"abc"}`, string(res.Value["Token"]))
	assert.JSONEq(t, `{"server_public_key":"pk"}`, string(res.Value["ServerPublicKey"]))
}

func TestDecodeFlattened_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty array":      `{"Response":[]}`,
		"multi-key object": `{"Response":[{"Id":{"id":1}},{"Token":{},"Extra":{}}]}`,
		"zero-key object":  `{"Response":[{"Id":{"id":1}},{}]}`,
		"non-object":       `{"Response":[{"Id":{"id":1}},"Token"]}`,
		"null element":     `{"Response":[null]}`,
		"missing Response": `{"Pagination":null}`,
		"invalid json":     `{"Response":[`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode[installationResponse]([]byte(body), ModeFlattened)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeNormal_PreservesOrderAndFields(t *testing.T) {
	in := []Payment{
		{ID: 3, MonetaryAccountID: 10, Description: "third", Type: "BUNQ", SubType: "PAYMENT"},
		{ID: 2, MonetaryAccountID: 10, Description: "second", Type: "IDEAL", SubType: "PAYMENT"},
		{ID: 1, MonetaryAccountID: 11, Description: "first", Type: "BUNQ", SubType: "REQUEST"},
	}
	raw, err := json.Marshal(map[string]any{"Response": in, "Pagination": nil})
	require.NoError(t, err)

	res, err := Decode[[]Payment](raw, ModeNormal)
	require.NoError(t, err)
	require.Len(t, res.Value, len(in))
	for i := range in {
		assert.Equal(t, in[i].ID, res.Value[i].ID)
		assert.Equal(t, in[i].MonetaryAccountID, res.Value[i].MonetaryAccountID)
		assert.Equal(t, in[i].Description, res.Value[i].Description)
		assert.Equal(t, in[i].Type, res.Value[i].Type)
		assert.Equal(t, in[i].SubType, res.Value[i].SubType)
	}
}

func TestDecodeNormal_EmptyArray(t *testing.T) {
	res, err := Decode[[]Payment]([]byte(`{"Response":[],"Pagination":null}`), ModeNormal)
	require.NoError(t, err)
	assert.Empty(t, res.Value)
}

func TestDecodeNormal_TypeMismatch(t *testing.T) {
	_, err := Decode[[]Payment]([]byte(`{"Response":[{"id":"not-a-number"}]}`), ModeNormal)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecode_Pagination(t *testing.T) {
	body := `{"Response":[],"Pagination":{"future_url":null,"newer_url":"/v1/x?newer_id=9","older_url":"/v1/x?older_id=3"}}`

	res, err := Decode[[]Payment]([]byte(body), ModeNormal)
	require.NoError(t, err)
	require.NotNil(t, res.Pagination)
	assert.Nil(t, res.Pagination.FutureURL)
	require.NotNil(t, res.Pagination.NewerURL)
	assert.Equal(t, "/v1/x?newer_id=9", *res.Pagination.NewerURL)

	older, ok := res.Pagination.Older()
	assert.True(t, ok)
	assert.Equal(t, "/v1/x?older_id=3", older)
}

func TestPagination_OlderAbsent(t *testing.T) {
	var nilPagination *Pagination
	_, ok := nilPagination.Older()
	assert.False(t, ok)

	_, ok = (&Pagination{}).Older()
	assert.False(t, ok)

	empty := ""
	_, ok = (&Pagination{OlderURL: &empty}).Older()
	assert.False(t, ok)
}

func TestDecode_AmountIsExact(t *testing.T) {
	body := `{"Response":[{"Payment":{"id":1,"amount":{"value":"-0.10","currency":"EUR"},"balance_after_mutation":{"value":"1234567.89","currency":"EUR"}}}]}`

	res, err := Decode[[]paymentWrapper]([]byte(body), ModeNormal)
	require.NoError(t, err)
	require.Len(t, res.Value, 1)
	p := res.Value[0].Payment
	require.NotNil(t, p)
	assert.Equal(t, "-0.1", p.Amount.Value.String())
	assert.Equal(t, "-0.10 EUR", p.Amount.String())
	assert.Equal(t, "1234567.89", p.BalanceAfterMutation.Value.String())
}
