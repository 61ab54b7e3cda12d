// Package receipts signs settlement outcomes as COSE_Sign1 (ES256) documents
// that bidders can verify offline with the ledger's public key.
package receipts

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/core"
	"github.com/cloudx-io/sealedauction/ledgerapi"
)

// Signer holds the ledger's receipt signing key.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	PublicKey  *ecdsa.PublicKey
	signer     cose.Signer
	now        func() time.Time
	logger     *zap.Logger
}

// NewSigner generates a fresh P-256 key pair.
func NewSigner(logger *zap.Logger) (*Signer, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	return NewSignerFromKey(key, logger)
}

func NewSignerFromKey(key *ecdsa.PrivateKey, logger *zap.Logger) (*Signer, error) {
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("signing key must be P-256, got %s", key.Curve.Params().Name)
	}
	signer, err := cose.NewSigner(cose.AlgorithmES256, key)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Signer{
		privateKey: key,
		PublicKey:  &key.PublicKey,
		signer:     signer,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// PublicKeyPEM returns the public key in PEM format
func (s *Signer) PublicKeyPEM() (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(s.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}
	return string(pem.EncodeToMemory(pemBlock)), nil
}

// Issue signs settlement together with the hash of the post-settlement
// snapshot and returns untagged COSE_Sign1 bytes:
// [protected, unprotected, payload, signature].
func (s *Signer) Issue(settlement *core.Settlement, snapshotHash common.Hash) (ledgerapi.ReceiptCOSE, error) {
	if settlement == nil {
		return nil, fmt.Errorf("settlement is nil")
	}
	payload, err := ledgerapi.EncodeReceipt(&ledgerapi.SettlementReceipt{
		Settlement:   *settlement,
		SnapshotHash: snapshotHash,
		IssuedAt:     s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	protected, err := cbor.Marshal(map[int]int{headerLabelAlgorithm: int(cose.AlgorithmES256)})
	if err != nil {
		return nil, fmt.Errorf("marshal protected headers: %w", err)
	}
	toBeSigned, err := sigStructure(protected, payload)
	if err != nil {
		return nil, err
	}
	signature, err := s.signer.Sign(rand.Reader, toBeSigned)
	if err != nil {
		return nil, fmt.Errorf("sign receipt: %w", err)
	}

	coseBytes, err := cbor.Marshal([]any{protected, map[int]any{}, payload, signature})
	if err != nil {
		return nil, fmt.Errorf("marshal COSE_Sign1: %w", err)
	}

	s.logger.Info("settlement receipt issued",
		zap.String("auction_id", settlement.AuctionID),
		zap.String("snapshot_hash", snapshotHash.Hex()),
		zap.Int("bytes", len(coseBytes)))
	return ledgerapi.ReceiptCOSE(coseBytes), nil
}

const headerLabelAlgorithm = 1

// sigStructure builds the COSE_Sign1 Sig_structure:
// ["Signature1", protected, external_aad, payload]. External AAD is empty.
func sigStructure(protected, payload []byte) ([]byte, error) {
	data, err := cbor.Marshal([]any{"Signature1", protected, []byte{}, payload})
	if err != nil {
		return nil, fmt.Errorf("marshal Sig_structure: %w", err)
	}
	return data, nil
}
