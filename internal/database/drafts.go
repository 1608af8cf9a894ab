package walletstatedb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveBatchDraft stores a new draft under its owning wallet address.
// A missing id is assigned here.
func SaveBatchDraft(draft *BatchDraft) error {
	if draft.WalletAddress == "" {
		return fmt.Errorf("draft has no wallet address")
	}
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now()
	}
	return DB.Create(draft).Error
}

// UpdateBatchDraft rewrites an existing draft in place. The wallet address
// scoping prevents edits from crossing wallets.
func UpdateBatchDraft(draft *BatchDraft) error {
	result := DB.Where("id = ? AND wallet_address = ?", draft.ID, draft.WalletAddress).
		Select("*").Omit("id", "wallet_address", "created_at").Updates(draft)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("draft %s not found for wallet", draft.ID)
	}
	return nil
}

// DuplicateBatchDraft copies a draft within the same wallet, assigning a
// fresh id and creation time.
func DuplicateBatchDraft(walletAddress, draftID string) (*BatchDraft, error) {
	var draft BatchDraft
	err := DB.Where("id = ? AND wallet_address = ?", draftID, walletAddress).First(&draft).Error
	if err != nil {
		return nil, fmt.Errorf("draft not found: %v", err)
	}

	draft.ID = uuid.New().String()
	draft.CreatedAt = time.Now()
	if err := DB.Create(&draft).Error; err != nil {
		return nil, err
	}
	return &draft, nil
}

// GetBatchDrafts lists a wallet's pending drafts, oldest first.
func GetBatchDrafts(walletAddress string) ([]BatchDraft, error) {
	var drafts []BatchDraft
	result := DB.Where("wallet_address = ?", walletAddress).Order("created_at asc").Find(&drafts)
	if result.Error != nil {
		return nil, result.Error
	}
	return drafts, nil
}

// GetBatchDraftsByIDs loads the selected drafts of one wallet, preserving
// the order of the requested ids.
func GetBatchDraftsByIDs(walletAddress string, ids []string) ([]BatchDraft, error) {
	var drafts []BatchDraft
	result := DB.Where("wallet_address = ? AND id IN ?", walletAddress, ids).Find(&drafts)
	if result.Error != nil {
		return nil, result.Error
	}

	byID := make(map[string]BatchDraft, len(drafts))
	for _, d := range drafts {
		byID[d.ID] = d
	}
	ordered := make([]BatchDraft, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("draft %s not found for wallet", id)
		}
		ordered = append(ordered, d)
	}
	return ordered, nil
}

// DeleteBatchDraft removes a single draft of a wallet.
func DeleteBatchDraft(walletAddress, draftID string) error {
	return DB.Where("id = ? AND wallet_address = ?", draftID, walletAddress).
		Delete(&BatchDraft{}).Error
}

// DeleteBatchDrafts removes the given drafts of a wallet, typically after
// a successful batch submission.
func DeleteBatchDrafts(walletAddress string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return DB.Where("wallet_address = ? AND id IN ?", walletAddress, ids).
		Delete(&BatchDraft{}).Error
}

// ClearBatchDrafts removes every draft of a wallet.
func ClearBatchDrafts(walletAddress string) error {
	return DB.Where("wallet_address = ?", walletAddress).Delete(&BatchDraft{}).Error
}
