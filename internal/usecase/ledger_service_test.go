package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	"github.com/dheerajsingh9334/mern-Blog/internal/testutil"
)

func credit(author string, amount int64) model.LedgerEntryInput {
	return model.LedgerEntryInput{
		AuthorID: author,
		Kind:     model.EntryKindCredit,
		Amount:   amount,
		Currency: testutil.Currency,
	}
}

func TestLedgerService_AppendValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input model.LedgerEntryInput
	}{
		{"zero credit", credit(testAuthor, 0)},
		{"negative credit", credit(testAuthor, -5)},
		{"positive debit", model.LedgerEntryInput{AuthorID: testAuthor, Kind: model.EntryKindDebit, Amount: 5, Currency: testutil.Currency}},
		{"zero debit", model.LedgerEntryInput{AuthorID: testAuthor, Kind: model.EntryKindDebit, Amount: 0, Currency: testutil.Currency}},
		{"missing author", credit("", 100)},
		{"foreign currency", model.LedgerEntryInput{AuthorID: testAuthor, Kind: model.EntryKindCredit, Amount: 100, Currency: "eur"}},
		{"unknown kind", model.LedgerEntryInput{AuthorID: testAuthor, Kind: "bonus", Amount: 100, Currency: testutil.Currency}},
		{"reversal without original", model.LedgerEntryInput{AuthorID: testAuthor, Kind: model.EntryKindReversal, Amount: -100, Currency: testutil.Currency}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := env.ledger.Append(ctx, tt.input)
			assert.Nil(t, entry)
			var invalid *domainErrors.InvalidEntryError
			assert.ErrorAs(t, err, &invalid)
		})
	}

	assert.Empty(t, env.entries(t, testAuthor))
}

func TestLedgerService_AppendAssignsIncreasingSequences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.ledger.Append(ctx, credit(testAuthor, 100))
	require.NoError(t, err)
	second, err := env.ledger.Append(ctx, credit("author-2", 50))
	require.NoError(t, err)
	third, err := env.ledger.Append(ctx, model.LedgerEntryInput{
		AuthorID: testAuthor,
		Kind:     model.EntryKindDebit,
		Amount:   -30,
		Currency: "USD",
	})
	require.NoError(t, err)

	assert.Less(t, first.Sequence, second.Sequence)
	assert.Less(t, second.Sequence, third.Sequence)
	assert.Equal(t, testutil.Currency, third.Currency)
}

func TestLedgerService_BalanceAsOf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.ledger.Append(ctx, credit(testAuthor, 100))
	require.NoError(t, err)
	_, err = env.ledger.Append(ctx, credit(testAuthor, 250))
	require.NoError(t, err)
	_, err = env.ledger.Append(ctx, credit("author-2", 999))
	require.NoError(t, err)

	balance, err := env.ledger.Balance(ctx, testAuthor, &first.Sequence)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	balance, err = env.ledger.Balance(ctx, testAuthor, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(350), balance)

	balance, err = env.ledger.Balance(ctx, "nobody", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestLedgerService_EntriesSince(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.pageSize = 2
	ctx := context.Background()

	var sequences []int64
	for i := 1; i <= 5; i++ {
		entry, err := env.ledger.Append(ctx, credit(testAuthor, int64(i*10)))
		require.NoError(t, err)
		sequences = append(sequences, entry.Sequence)
		_, err = env.ledger.Append(ctx, credit("author-2", 1))
		require.NoError(t, err)
	}

	collect := func(since int64) []int64 {
		var got []int64
		for entry, err := range env.ledger.EntriesSince(ctx, testAuthor, since) {
			require.NoError(t, err)
			assert.Equal(t, testAuthor, entry.AuthorID)
			got = append(got, entry.Sequence)
		}
		return got
	}

	assert.Equal(t, sequences, collect(0))
	assert.Equal(t, sequences[2:], collect(sequences[1]))
	assert.Empty(t, collect(sequences[4]))

	// restartable: a second pass yields the same entries
	assert.Equal(t, sequences, collect(0))

	// stopping early is allowed
	count := 0
	for range env.ledger.EntriesSince(ctx, testAuthor, 0) {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestLedgerService_Reverse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	original, err := env.ledger.Append(ctx, credit(testAuthor, 700))
	require.NoError(t, err)

	reversal, err := env.ledger.Reverse(ctx, original.Sequence, "refunded")
	require.NoError(t, err)
	assert.Equal(t, model.EntryKindReversal, reversal.Kind)
	assert.Equal(t, int64(-700), reversal.Amount)
	require.NotNil(t, reversal.ReversesSequence)
	assert.Equal(t, original.Sequence, *reversal.ReversesSequence)
	assert.Contains(t, reversal.Description, "refunded")

	assert.Equal(t, int64(0), env.balance(t, testAuthor))

	_, err = env.ledger.Reverse(ctx, original.Sequence, "")
	assert.ErrorIs(t, err, domainErrors.ErrEntryAlreadyReversed)

	_, err = env.ledger.Reverse(ctx, reversal.Sequence, "")
	assert.ErrorIs(t, err, domainErrors.ErrReversalNotReversible)

	_, err = env.ledger.Reverse(ctx, 9999, "")
	assert.ErrorIs(t, err, domainErrors.ErrEntryNotFound)
}

func TestLedgerService_ReverseCannotOverdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	original, err := env.ledger.Append(ctx, credit(testAuthor, 700))
	require.NoError(t, err)
	_, err = env.ledger.Adjust(ctx, testAuthor, -500, "manual payout")
	require.NoError(t, err)

	_, err = env.ledger.Reverse(ctx, original.Sequence, "chargeback")
	var insufficient *domainErrors.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(200), insufficient.Available)
	assert.Equal(t, int64(200), env.balance(t, testAuthor))
}

func TestLedgerService_ReverseTwiceIsNotAnOverdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	original, err := env.ledger.Append(ctx, credit(testAuthor, 700))
	require.NoError(t, err)
	_, err = env.ledger.Reverse(ctx, original.Sequence, "refunded")
	require.NoError(t, err)
	require.Equal(t, int64(0), env.balance(t, testAuthor))

	_, err = env.ledger.Reverse(ctx, original.Sequence, "refunded again")
	assert.ErrorIs(t, err, domainErrors.ErrEntryAlreadyReversed)
	var insufficient *domainErrors.InsufficientBalanceError
	assert.False(t, errors.As(err, &insufficient))
	assert.Len(t, env.entries(t, testAuthor), 2)
}

func TestLedgerService_AdjustMultibyteDescription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	description := strings.Repeat("é", 200)
	entry, err := env.ledger.Adjust(ctx, testAuthor, 500, description)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(entry.Description))
	assert.Equal(t, description, entry.Description)

	entry, err = env.ledger.Adjust(ctx, testAuthor, 500, strings.Repeat("é", 300))
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(entry.Description))
	assert.Equal(t, 255, utf8.RuneCountInString(entry.Description))

	stored := env.entries(t, testAuthor)
	require.Len(t, stored, 2)
	assert.Equal(t, description, stored[0].Description)
	assert.True(t, utf8.ValidString(stored[1].Description))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "goodwill", 255, "goodwill"},
		{"ascii", "abcdef", 3, "abc"},
		{"multibyte", "ééé", 2, "éé"},
		{"mixed", "aéb", 2, "aé"},
		{"exact", "éé", 2, "éé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestLedgerService_Adjust(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, err := env.ledger.Adjust(ctx, testAuthor, 300, "goodwill")
	require.NoError(t, err)
	assert.Equal(t, model.EntryKindCredit, entry.Kind)

	entry, err = env.ledger.Adjust(ctx, testAuthor, -100, "correction")
	require.NoError(t, err)
	assert.Equal(t, model.EntryKindDebit, entry.Kind)
	assert.Equal(t, int64(-100), entry.Amount)

	_, err = env.ledger.Adjust(ctx, testAuthor, -500, "too much")
	var insufficient *domainErrors.InsufficientBalanceError
	assert.ErrorAs(t, err, &insufficient)

	_, err = env.ledger.Adjust(ctx, testAuthor, 0, "nothing")
	var invalid *domainErrors.InvalidEntryError
	assert.ErrorAs(t, err, &invalid)

	assert.Equal(t, int64(200), env.balance(t, testAuthor))
}

func TestLedgerEntries_AreAppendOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, err := env.ledger.Append(ctx, credit(testAuthor, 700))
	require.NoError(t, err)

	err = env.db.Model(&model.LedgerEntry{}).Where("sequence = ?", entry.Sequence).Update("amount", 7000).Error
	assert.Error(t, err)

	err = env.db.Where("sequence = ?", entry.Sequence).Delete(&model.LedgerEntry{}).Error
	assert.Error(t, err)

	assert.Equal(t, int64(700), env.balance(t, testAuthor))
}
