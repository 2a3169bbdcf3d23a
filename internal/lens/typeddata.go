package lens

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// TypedDataEnvelope 是远端构造的未签名 typed data。
// 远端响应中夹带的 __typename 字段只服务于传输层，
// 进入签名摘要前必须剥除。
type TypedDataEnvelope struct {
	ID        string
	rawTypes  map[string]json.RawMessage
	rawDomain map[string]any
	rawValue  map[string]any
}

// UnmarshalJSON 解析远端的 typed data 响应。
func (e *TypedDataEnvelope) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        string `json:"id"`
		TypedData struct {
			Types  map[string]json.RawMessage `json:"types"`
			Domain map[string]any             `json:"domain"`
			Value  map[string]any             `json:"value"`
		} `json:"typedData"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	e.ID = wire.ID
	e.rawTypes = wire.TypedData.Types
	e.rawDomain = wire.TypedData.Domain
	e.rawValue = wire.TypedData.Value
	return nil
}

// EIP712 将信封转换为可签名的 apitypes.TypedData。
func (e *TypedDataEnvelope) EIP712(primaryType string) (apitypes.TypedData, error) {
	types := apitypes.Types{}
	for name, raw := range e.rawTypes {
		if name == "__typename" {
			continue
		}
		var defs []apitypes.Type
		if err := json.Unmarshal(raw, &defs); err != nil {
			return apitypes.TypedData{}, fmt.Errorf("解析类型 %s 失败: %w", name, err)
		}
		types[name] = defs
	}
	if _, ok := types["EIP712Domain"]; !ok {
		types["EIP712Domain"] = []apitypes.Type{
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		}
	}

	domain := apitypes.TypedDataDomain{}
	for key, value := range e.rawDomain {
		switch key {
		case "name":
			domain.Name, _ = value.(string)
		case "version":
			domain.Version, _ = value.(string)
		case "verifyingContract":
			domain.VerifyingContract, _ = value.(string)
		case "chainId":
			switch v := value.(type) {
			case float64:
				domain.ChainId = math.NewHexOrDecimal256(int64(v))
			case string:
				parsed, ok := math.ParseBig256(v)
				if !ok {
					return apitypes.TypedData{}, fmt.Errorf("无法解析 chainId: %s", v)
				}
				chainID := math.HexOrDecimal256(*parsed)
				domain.ChainId = &chainID
			}
		}
	}

	message := make(apitypes.TypedDataMessage, len(e.rawValue))
	for key, value := range e.rawValue {
		if key == "__typename" {
			continue
		}
		message[key] = value
	}

	return apitypes.TypedData{
		Types:       types,
		PrimaryType: primaryType,
		Domain:      domain,
		Message:     message,
	}, nil
}
