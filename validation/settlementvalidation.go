package validation

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/sealedauction/core"
	"github.com/cloudx-io/sealedauction/ledgerapi"
	"github.com/cloudx-io/sealedauction/receipts"
)

// SettlementValidationInput contains everything needed to audit a settled
// auction offline.
type SettlementValidationInput struct {
	Bundle ledgerapi.SettlementBundle

	// PublicKeyPEM, when set, is the ledger key obtained out of band and takes
	// precedence over the key carried in the bundle.
	PublicKeyPEM string

	// Bidder, Bid and Salt let a bidder check their own commitment. Leave Bid
	// or Salt nil to skip that check.
	Bidder common.Address
	Bid    *decimal.Decimal
	Salt   *common.Hash

	// FeeRate, when set, is the fee rate the bidder expects was applied.
	FeeRate *decimal.Decimal
}

// ValidateSettlement verifies a signed settlement receipt against the
// snapshot it commits to and recomputes the outcome:
// - Receipt signature and snapshot hash
// - Winner and clearing price from the reveal log
// - Fee / proceeds / refund split
// - The caller's own commitment, when supplied
// - Per-auction conservation of collateral
//
// Returns:
//   - SettlementValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed input)
func ValidateSettlement(input *SettlementValidationInput) (*SettlementValidationResult, error) {
	keyPEM := input.PublicKeyPEM
	if keyPEM == "" {
		keyPEM = input.Bundle.PublicKeyPEM
	}
	publicKey, err := receipts.ParsePublicKeyPEM(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("read ledger public key: %w", err)
	}
	coseBytes, err := input.Bundle.ReceiptCOSEBase64.Decode()
	if err != nil {
		return nil, err
	}
	snapshot, err := ledgerapi.DecodeSnapshot(input.Bundle.SnapshotCBOR)
	if err != nil {
		return nil, err
	}

	result := &SettlementValidationResult{}

	receipt, err := receipts.Verify(coseBytes, publicKey)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Receipt signature invalid: %v", err))
		return result, nil
	}
	result.SignatureValid = true
	result.ValidationDetails = append(result.ValidationDetails, "Receipt signature verified (ES256)")

	result.SnapshotHashValid = validateSnapshotHash(input, snapshot, receipt, result)
	result.OutcomeValid = validateOutcome(snapshot, &receipt.Settlement, result)
	result.FeeSplitValid = validateFeeSplit(input, snapshot, &receipt.Settlement, result)
	result.CommitmentValid = validateCommitment(input, snapshot, &receipt.Settlement, result)
	result.ConservationValid = validateConservation(snapshot, &receipt.Settlement, result)

	return result, nil
}

func validateSnapshotHash(input *SettlementValidationInput, snapshot *ledgerapi.AuctionSnapshot, receipt *ledgerapi.SettlementReceipt, result *SettlementValidationResult) bool {
	computed := ledgerapi.HashEncoded(input.Bundle.SnapshotCBOR)
	if computed != receipt.SnapshotHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Snapshot hash mismatch: computed %s, receipt has %s", computed.Hex(), receipt.SnapshotHash.Hex()))
		return false
	}
	if snapshot.Auction.ID != receipt.Settlement.AuctionID {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Auction mismatch: snapshot is %s, receipt is %s", snapshot.Auction.ID, receipt.Settlement.AuctionID))
		return false
	}
	if !snapshot.Auction.Settled {
		result.ValidationDetails = append(result.ValidationDetails, "Snapshot was taken before settlement")
		return false
	}
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Snapshot hash validation passed: %s", computed.Hex()))
	return true
}

func validateOutcome(snapshot *ledgerapi.AuctionSnapshot, settlement *core.Settlement, result *SettlementValidationResult) bool {
	a := &snapshot.Auction
	standing := core.RankReveals(snapshot.Reveals)

	if standing.Leader != a.HighestBidder || !standing.HighestBid.Equal(a.HighestBid) || !standing.SecondHighestBid.Equal(a.SecondHighestBid) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Reveal log does not reproduce auction standing: log gives %s at %s/%s, auction has %s at %s/%s",
			standing.Leader.Hex(), standing.HighestBid, standing.SecondHighestBid,
			a.HighestBidder.Hex(), a.HighestBid, a.SecondHighestBid))
		return false
	}

	expectSale := standing.Leader != (common.Address{}) && core.MeetsReserve(standing.HighestBid, a.ReservePrice)
	if expectSale != settlement.Sold {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Outcome mismatch: expected sold=%v, receipt has sold=%v", expectSale, settlement.Sold))
		return false
	}

	if !expectSale {
		if !settlement.ClearingPrice.IsZero() || settlement.Winner != (common.Address{}) {
			result.ValidationDetails = append(result.ValidationDetails, "Outcome mismatch: no-sale receipt carries a winner or price")
			return false
		}
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Outcome validation passed: no sale (highest %s, reserve %s)", standing.HighestBid, a.ReservePrice))
		return true
	}

	price := core.ClearingPrice(standing.HighestBid, standing.SecondHighestBid)
	if settlement.Winner != standing.Leader {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Winner mismatch: expected %s, receipt has %s", standing.Leader.Hex(), settlement.Winner.Hex()))
		return false
	}
	if !settlement.ClearingPrice.Equal(price) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Clearing price mismatch: expected %s, receipt has %s", price, settlement.ClearingPrice))
		return false
	}
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Outcome validation passed: %s wins at %s", settlement.Winner.Hex(), price))
	return true
}

func validateFeeSplit(input *SettlementValidationInput, snapshot *ledgerapi.AuctionSnapshot, settlement *core.Settlement, result *SettlementValidationResult) bool {
	if !settlement.Sold {
		if !settlement.Fee.IsZero() || !settlement.Proceeds.IsZero() || !settlement.WinnerRefund.IsZero() {
			result.ValidationDetails = append(result.ValidationDetails, "Fee split mismatch: no-sale receipt carries payouts")
			return false
		}
		result.ValidationDetails = append(result.ValidationDetails, "Fee split validation passed: nothing paid out")
		return true
	}

	price := settlement.ClearingPrice
	if !settlement.Fee.Add(settlement.Proceeds).Equal(price) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Fee split mismatch: fee %s + proceeds %s != price %s", settlement.Fee, settlement.Proceeds, price))
		return false
	}
	if input.FeeRate != nil {
		fee, _ := core.SplitFee(price, *input.FeeRate)
		if !fee.Equal(settlement.Fee) {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Fee mismatch: rate %s gives %s, receipt has %s", input.FeeRate, fee, settlement.Fee))
			return false
		}
	}

	winner, ok := snapshot.Commitment(settlement.Winner)
	if !ok || !winner.Revealed {
		result.ValidationDetails = append(result.ValidationDetails, "Winner has no revealed commitment in snapshot")
		return false
	}
	refund := winner.Bid.Sub(price)
	if !settlement.WinnerRefund.Equal(refund) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Winner refund mismatch: expected %s, receipt has %s", refund, settlement.WinnerRefund))
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Fee split validation passed: fee %s, proceeds %s, refund %s", settlement.Fee, settlement.Proceeds, refund))
	return true
}

func validateCommitment(input *SettlementValidationInput, snapshot *ledgerapi.AuctionSnapshot, settlement *core.Settlement, result *SettlementValidationResult) bool {
	if input.Bid == nil || input.Salt == nil {
		result.ValidationDetails = append(result.ValidationDetails, "Commitment check skipped: no bid/salt supplied")
		return true
	}

	entry, ok := snapshot.Commitment(input.Bidder)
	if !ok {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("No commitment for %s in snapshot", input.Bidder.Hex()))
		return false
	}
	computed, err := core.ComputeCommitment(*input.Bid, *input.Salt)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Cannot compute commitment: %v", err))
		return false
	}
	if computed != entry.Hash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Commitment hash mismatch: computed %s, ledger has %s", computed.Hex(), entry.Hash.Hex()))
		return false
	}
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Commitment hash found in snapshot: %s", computed.Hex()))

	if !entry.Revealed {
		result.ValidationDetails = append(result.ValidationDetails, "Bid was never revealed; collateral is reclaimable in full")
		return true
	}
	if !entry.Bid.Equal(*input.Bid) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Revealed bid mismatch: expected %s, ledger has %s", input.Bid, entry.Bid))
		return false
	}
	if settlement.Sold && settlement.Winner == input.Bidder {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Bid won, paying %s", settlement.ClearingPrice))
	} else {
		result.ValidationDetails = append(result.ValidationDetails, "Bid lost; locked bid is reclaimable")
	}
	return true
}

// validateConservation checks that every unit of collateral is accounted for
// exactly once: still locked, credited, or reclaimed.
func validateConservation(snapshot *ledgerapi.AuctionSnapshot, settlement *core.Settlement, result *SettlementValidationResult) bool {
	collateral := decimal.Zero
	credited := decimal.Zero
	reclaimed := decimal.Zero
	for _, c := range snapshot.Commitments {
		collateral = collateral.Add(c.Collateral)

		owed := c.Collateral
		if c.Revealed {
			credited = credited.Add(c.Collateral.Sub(c.Bid))
			owed = c.Bid
		}
		isWinner := settlement.Sold && c.Bidder == settlement.Winner
		switch {
		case isWinner:
			if c.LockedStake != nil {
				result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Winner %s still has a locked stake", c.Bidder.Hex()))
				return false
			}
		case c.LockedStake == nil:
			if c.Revealed && c.Bid.IsZero() {
				break
			}
			reclaimed = reclaimed.Add(owed)
		case !c.LockedStake.Equal(owed):
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Locked stake of %s is %s, expected %s", c.Bidder.Hex(), c.LockedStake, owed))
			return false
		}
	}
	if settlement.Sold {
		credited = credited.Add(settlement.ClearingPrice).Add(settlement.WinnerRefund)
	}

	if !collateral.Equal(snapshot.TotalCollateral) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Total collateral mismatch: commitments sum to %s, ledger has %s", collateral, snapshot.TotalCollateral))
		return false
	}
	if !credited.Equal(snapshot.Credited) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Credited mismatch: expected %s, ledger has %s", credited, snapshot.Credited))
		return false
	}
	if !reclaimed.Equal(snapshot.Reclaimed) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Reclaimed mismatch: expected %s, ledger has %s", reclaimed, snapshot.Reclaimed))
		return false
	}
	accounted := snapshot.Outstanding().Add(snapshot.Credited).Add(snapshot.Reclaimed)
	if !accounted.Equal(snapshot.TotalCollateral) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Conservation violated: locked + credited + reclaimed = %s, collateral %s", accounted, snapshot.TotalCollateral))
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Conservation validation passed: collateral %s = locked %s + credited %s + reclaimed %s",
		snapshot.TotalCollateral, snapshot.Outstanding(), snapshot.Credited, snapshot.Reclaimed))
	return true
}
