package lens

import (
	"encoding/json"
	"math/big"
	"testing"
)

const typedDataFixture = `{
  "id": "td-1",
  "typedData": {
    "types": {
      "__typename": "CreateOnchainPostEIP712TypedDataTypes",
      "Post": [
        {"name": "contentURI", "type": "string"},
        {"name": "nonce", "type": "uint256"}
      ]
    },
    "domain": {
      "__typename": "EIP712TypedDataDomain",
      "name": "Lens Protocol Profiles",
      "version": "2",
      "chainId": 137,
      "verifyingContract": "0xDb46d1Dc155634FbC732f92E853b10B288AD5a1d"
    },
    "value": {
      "__typename": "CreateOnchainPostEIP712TypedDataValue",
      "contentURI": "ipfs://QmTest",
      "nonce": 7
    }
  }
}`

func TestTypedDataEnvelopeStripsTypename(t *testing.T) {
	var envelope TypedDataEnvelope
	if err := json.Unmarshal([]byte(typedDataFixture), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.ID != "td-1" {
		t.Fatalf("unexpected id: %s", envelope.ID)
	}

	typed, err := envelope.EIP712("Post")
	if err != nil {
		t.Fatalf("eip712: %v", err)
	}
	if _, ok := typed.Types["__typename"]; ok {
		t.Fatal("__typename must not survive in types")
	}
	if _, ok := typed.Message["__typename"]; ok {
		t.Fatal("__typename must not survive in message")
	}
	if typed.PrimaryType != "Post" {
		t.Fatalf("unexpected primary type: %s", typed.PrimaryType)
	}
	if typed.Domain.Name != "Lens Protocol Profiles" {
		t.Fatalf("unexpected domain name: %s", typed.Domain.Name)
	}
	if typed.Domain.ChainId == nil || (*big.Int)(typed.Domain.ChainId).Int64() != 137 {
		t.Fatalf("unexpected chain id: %v", typed.Domain.ChainId)
	}
	if _, ok := typed.Types["EIP712Domain"]; !ok {
		t.Fatal("EIP712Domain type must be present")
	}
}

func TestTypedDataEnvelopeChainIDAsString(t *testing.T) {
	raw := `{
  "id": "td-2",
  "typedData": {
    "types": {"Post": [{"name": "contentURI", "type": "string"}]},
    "domain": {"name": "Lens", "version": "2", "chainId": "0x89", "verifyingContract": "0xDb46d1Dc155634FbC732f92E853b10B288AD5a1d"},
    "value": {"contentURI": "ipfs://QmTest"}
  }
}`
	var envelope TypedDataEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	typed, err := envelope.EIP712("Post")
	if err != nil {
		t.Fatalf("eip712: %v", err)
	}
	if typed.Domain.ChainId == nil || (*big.Int)(typed.Domain.ChainId).Int64() != 0x89 {
		t.Fatalf("unexpected chain id: %v", typed.Domain.ChainId)
	}
}
