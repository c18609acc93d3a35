package transactionservice

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/metricspkg"
)

func TestTypeLabel(t *testing.T) {
	testCases := []struct {
		typ  domain.TransactionType
		want string
	}{
		{typ: domain.TransactionTypeDeposit, want: "DEPOSIT"},
		{typ: domain.TransactionTypeTransfer, want: "TRANSFER"},
		{typ: domain.TransactionTypeReversal, want: "REVERSAL"},
		{typ: "", want: metricspkg.TypeInvalid},
		{typ: "deposit", want: metricspkg.TypeInvalid},
		{typ: "CHARGEBACK", want: metricspkg.TypeInvalid},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.want, typeLabel(tc.typ), "typeLabel(%q)", tc.typ)
	}
}

func TestUnknownTypeIsNotALabel(t *testing.T) {
	e, _ := newTestEngine(t, testAccount(1, "1000000001", domain.AccountTypeChecking, "1000.00"))

	invalid := metricspkg.TransactionsTotal.WithLabelValues(metricspkg.TypeInvalid, metricspkg.OutcomeRejected)
	before := testutil.ToFloat64(invalid)

	unknown := []domain.TransactionType{"CHARGEBACK-1", "CHARGEBACK-2"}

	for _, typ := range unknown {
		_, err := e.Execute(context.Background(), domain.TransactionIntent{
			Type:          typ,
			AccountNumber: "1000000001",
			Amount:        money("10.00"),
			RequesterID:   tellerID,
		})
		require.ErrorIs(t, err, domain.ErrInvalidTransactionType)
	}

	require.Equal(t, before+float64(len(unknown)), testutil.ToFloat64(invalid))

	for _, typ := range unknown {
		require.False(t, metricspkg.TransactionsTotal.DeleteLabelValues(string(typ), metricspkg.OutcomeRejected),
			"series created for type %q", typ)
	}
}
