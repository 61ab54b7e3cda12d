package receipts

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/sealedauction/ledgerapi"
)

// ExtractPayload returns the payload of a COSE_Sign1 4-element array
// without checking the signature.
func ExtractPayload(coseBytes []byte) ([]byte, error) {
	parts, err := splitSign1(coseBytes)
	if err != nil {
		return nil, err
	}
	return parts.payload, nil
}

type sign1Parts struct {
	protected []byte
	payload   []byte
	signature []byte
}

func splitSign1(coseBytes []byte) (*sign1Parts, error) {
	var coseArray []any
	if err := cbor.Unmarshal(coseBytes, &coseArray); err != nil {
		return nil, fmt.Errorf("parse COSE array: %w", err)
	}
	if len(coseArray) != 4 {
		return nil, fmt.Errorf("invalid COSE_Sign1 structure: expected 4 elements, got %d", len(coseArray))
	}

	protected, ok := coseArray[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid protected headers")
	}
	payload, ok := coseArray[2].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid payload")
	}
	signature, ok := coseArray[3].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid signature")
	}
	return &sign1Parts{protected: protected, payload: payload, signature: signature}, nil
}

// Verify checks an ES256 receipt against publicKey and decodes its payload.
func Verify(coseBytes ledgerapi.ReceiptCOSE, publicKey *ecdsa.PublicKey) (*ledgerapi.SettlementReceipt, error) {
	parts, err := splitSign1(coseBytes)
	if err != nil {
		return nil, err
	}

	var headers map[int]int
	if err := cbor.Unmarshal(parts.protected, &headers); err != nil {
		return nil, fmt.Errorf("parse protected headers: %w", err)
	}
	if alg := cose.Algorithm(headers[headerLabelAlgorithm]); alg != cose.AlgorithmES256 {
		return nil, fmt.Errorf("unsupported receipt algorithm %d", alg)
	}

	toBeSigned, err := sigStructure(parts.protected, parts.payload)
	if err != nil {
		return nil, err
	}
	verifier, err := cose.NewVerifier(cose.AlgorithmES256, publicKey)
	if err != nil {
		return nil, fmt.Errorf("create verifier: %w", err)
	}
	if err := verifier.Verify(toBeSigned, parts.signature); err != nil {
		return nil, fmt.Errorf("COSE signature verification failed: %w", err)
	}

	return ledgerapi.DecodeReceipt(parts.payload)
}

// ParsePublicKeyPEM reads a PKIX ECDSA public key.
func ParsePublicKeyPEM(data string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(data))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("no PUBLIC KEY block found")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}
	return ecKey, nil
}
