package signer

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func TestNewAccountAcceptsHexPrefix(t *testing.T) {
	plain, err := NewAccount(testKey)
	if err != nil {
		t.Fatalf("plain key: %v", err)
	}
	prefixed, err := NewAccount("0x" + testKey)
	if err != nil {
		t.Fatalf("prefixed key: %v", err)
	}
	if plain.Address() != prefixed.Address() {
		t.Fatalf("addresses differ: %s vs %s", plain.Address(), prefixed.Address())
	}
}

func TestNewAccountRejectsEmptyKey(t *testing.T) {
	if _, err := NewAccount("  "); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestSignMessageRecoversSigner(t *testing.T) {
	account, err := NewAccount(testKey)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}

	signature, err := account.SignMessage("sign in to lens")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	raw, err := hexutil.Decode(signature)
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	if len(raw) != 65 {
		t.Fatalf("expected 65 byte signature, got %d", len(raw))
	}
	if raw[64] != 27 && raw[64] != 28 {
		t.Fatalf("recovery id must be 27 or 28, got %d", raw[64])
	}

	raw[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte("sign in to lens")), raw)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if crypto.PubkeyToAddress(*pub).Hex() != account.Address() {
		t.Fatal("recovered address does not match signer")
	}
}

func TestSignTypedData(t *testing.T) {
	account, err := NewAccount(testKey)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}

	typed := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Post": []apitypes.Type{
				{Name: "contentURI", Type: "string"},
			},
		},
		PrimaryType: "Post",
		Domain: apitypes.TypedDataDomain{
			Name:              "Lens Protocol Profiles",
			Version:           "2",
			ChainId:           math.NewHexOrDecimal256(137),
			VerifyingContract: "0xDb46d1Dc155634FbC732f92E853b10B288AD5a1d",
		},
		Message: apitypes.TypedDataMessage{
			"contentURI": "ipfs://QmTest",
		},
	}

	signature, err := account.SignTypedData(typed)
	if err != nil {
		t.Fatalf("sign typed data: %v", err)
	}
	raw, err := hexutil.Decode(signature)
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	if len(raw) != 65 {
		t.Fatalf("expected 65 byte signature, got %d", len(raw))
	}

	hash, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		t.Fatalf("hash typed data: %v", err)
	}
	raw[64] -= 27
	pub, err := crypto.SigToPub(hash, raw)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if crypto.PubkeyToAddress(*pub).Hex() != account.Address() {
		t.Fatal("recovered address does not match signer")
	}
}
