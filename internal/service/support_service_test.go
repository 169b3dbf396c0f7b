package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/fan-platform/internal/model"
	"github.com/d60-Lab/fan-platform/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Creator{}, &model.SupportLog{}, &model.Supporter{}, &model.UploadedFile{},
	))
	return db
}

type settleFixture struct {
	db      *gorm.DB
	svc     SupportService
	payer   *model.User
	owner   *model.User
	creator *model.Creator
}

func newSettleFixture(t *testing.T) *settleFixture {
	t.Helper()
	db := setupTestDB(t)

	owner := &model.User{Username: "owner", HashedPassword: "x"}
	payer := &model.User{Username: "payer", HashedPassword: "x", FreePoints: 1000}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(payer).Error)

	calc := NewSplitCalculator(0.15)
	rates, err := calc.Compute(0.8)
	require.NoError(t, err)
	creator := &model.Creator{
		Name:              "Test Creator",
		CreatorFanSplit:   0.8,
		RevenueShare:      rates.RevenueShare,
		FanCommissionRate: rates.FanCommissionRate,
		PlatformFeeRate:   rates.PlatformFeeRate,
		IsActive:          true,
		UserID:            owner.ID,
	}
	require.NoError(t, db.Create(creator).Error)

	svc := NewSupportService(db, repository.NewSupportRepository(db), NewKeyLock())
	return &settleFixture{db: db, svc: svc, payer: payer, owner: owner, creator: creator}
}

func (f *settleFixture) reload(t *testing.T) (payer model.User, owner model.User, creator model.Creator) {
	t.Helper()
	require.NoError(t, f.db.First(&payer, f.payer.ID).Error)
	require.NoError(t, f.db.First(&owner, f.owner.ID).Error)
	require.NoError(t, f.db.First(&creator, f.creator.ID).Error)
	return
}

func (f *settleFixture) logCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.SupportLog{}).Count(&n).Error)
	return n
}

func TestSettleDirectSplitsAndReconciles(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	res, err := f.svc.Settle(ctx, f.payer.ID, SupportRequest{
		CreatorID: f.creator.ID, Amount: 1000, Message: "keep it up",
	})
	require.NoError(t, err)

	assert.InDelta(t, 680, res.CreatorShare, 0.01)
	assert.InDelta(t, 170, res.FanCommission, 0.01)
	assert.InDelta(t, 150, res.PlatformFee, 0.01)
	assert.InDelta(t, 1000, res.CreatorShare+res.FanCommission+res.PlatformFee, 0.01)
	assert.Equal(t, int64(1), res.TotalSupporters)

	payer, _, creator := f.reload(t)
	assert.InDelta(t, 1000, payer.TotalSupported, 0.01)
	assert.InDelta(t, 170, payer.TotalEarned, 0.01)
	assert.InDelta(t, 680, creator.TotalRevenue, 0.01)
	assert.Equal(t, int64(1), creator.TotalSupporters)
	assert.Equal(t, int64(1), f.logCount(t))
}

func TestSettleGuardFailuresLeaveNoState(t *testing.T) {
	type tc struct {
		name    string
		mutate  func(f *settleFixture, t *testing.T)
		payerID func(f *settleFixture) uint
		req     func(f *settleFixture) SupportRequest
		wantErr error
	}
	cases := []tc{
		{
			name:    "creator not found",
			req:     func(f *settleFixture) SupportRequest { return SupportRequest{CreatorID: 9999, Amount: 100} },
			wantErr: ErrCreatorNotFound,
		},
		{
			name: "inactive creator",
			mutate: func(f *settleFixture, t *testing.T) {
				require.NoError(t, f.db.Model(f.creator).Update("is_active", false).Error)
			},
			req:     func(f *settleFixture) SupportRequest { return SupportRequest{CreatorID: f.creator.ID, Amount: 100} },
			wantErr: ErrCreatorInactive,
		},
		{
			name:    "self support",
			payerID: func(f *settleFixture) uint { return f.owner.ID },
			req:     func(f *settleFixture) SupportRequest { return SupportRequest{CreatorID: f.creator.ID, Amount: 100} },
			wantErr: ErrSelfSupport,
		},
		{
			name:    "zero amount",
			req:     func(f *settleFixture) SupportRequest { return SupportRequest{CreatorID: f.creator.ID, Amount: 0} },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			req:     func(f *settleFixture) SupportRequest { return SupportRequest{CreatorID: f.creator.ID, Amount: -50} },
			wantErr: ErrInvalidAmount,
		},
		{
			name: "NaN amount",
			req: func(f *settleFixture) SupportRequest {
				return SupportRequest{CreatorID: f.creator.ID, Amount: math.NaN()}
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "positive infinite amount",
			req: func(f *settleFixture) SupportRequest {
				return SupportRequest{CreatorID: f.creator.ID, Amount: math.Inf(1)}
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "negative infinite amount",
			req: func(f *settleFixture) SupportRequest {
				return SupportRequest{CreatorID: f.creator.ID, Amount: math.Inf(-1)}
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "insufficient points",
			req: func(f *settleFixture) SupportRequest {
				return SupportRequest{CreatorID: f.creator.ID, Amount: 5000, Source: FundingPoints}
			},
			wantErr: ErrInsufficientPoints,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newSettleFixture(t)
			if c.mutate != nil {
				c.mutate(f, t)
			}
			payerID := f.payer.ID
			if c.payerID != nil {
				payerID = c.payerID(f)
			}
			_, err := f.svc.Settle(context.Background(), payerID, c.req(f))
			assert.ErrorIs(t, err, c.wantErr)

			payer, owner, creator := f.reload(t)
			assert.Zero(t, payer.TotalSupported)
			assert.Zero(t, payer.TotalEarned)
			assert.Zero(t, payer.PointsUsed)
			assert.InDelta(t, 1000, payer.FreePoints, 0.01)
			assert.Zero(t, owner.PointsEarned)
			assert.Zero(t, creator.TotalRevenue)
			assert.Zero(t, creator.TotalSupporters)
			assert.Zero(t, f.logCount(t))
		})
	}
}

func TestSettleInactiveCheckedBeforeSelfSupport(t *testing.T) {
	f := newSettleFixture(t)
	require.NoError(t, f.db.Model(f.creator).Update("is_active", false).Error)

	// guard order: inactive wins even when the payer is also the owner
	_, err := f.svc.Settle(context.Background(), f.owner.ID, SupportRequest{CreatorID: f.creator.ID, Amount: 100})
	assert.ErrorIs(t, err, ErrCreatorInactive)
}

func TestSettleRepeatPayerKeepsDistinctSupporterCount(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	_, err := f.svc.Settle(ctx, f.payer.ID, SupportRequest{CreatorID: f.creator.ID, Amount: 100})
	require.NoError(t, err)
	res, err := f.svc.Settle(ctx, f.payer.ID, SupportRequest{CreatorID: f.creator.ID, Amount: 200})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.TotalSupporters)
	_, _, creator := f.reload(t)
	assert.Equal(t, int64(1), creator.TotalSupporters)
	assert.InDelta(t, 0.68*300, creator.TotalRevenue, 0.01)

	// a second distinct payer raises the count
	other := &model.User{Username: "other", HashedPassword: "x"}
	require.NoError(t, f.db.Create(other).Error)
	res, err = f.svc.Settle(ctx, other.ID, SupportRequest{CreatorID: f.creator.ID, Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalSupporters)
}

func TestSettlePointsMovesBothWallets(t *testing.T) {
	f := newSettleFixture(t)

	res, err := f.svc.Settle(context.Background(), f.payer.ID, SupportRequest{
		CreatorID: f.creator.ID, Amount: 400, Source: FundingPoints,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SupportTypePoints, res.SupportType)

	payer, owner, creator := f.reload(t)
	assert.InDelta(t, 600, payer.FreePoints, 0.01)
	assert.InDelta(t, 400, payer.PointsUsed, 0.01)
	assert.InDelta(t, 0.17*400, payer.PointsEarned, 0.01)
	assert.InDelta(t, 0.68*400, owner.PointsEarned, 0.01)
	assert.InDelta(t, 0.68*400, creator.TotalRevenue, 0.01)
	// direct totals untouched in point mode
	assert.Zero(t, payer.TotalSupported)
	assert.Zero(t, payer.TotalEarned)
}

func TestSettleRejectsTamperedCachedRates(t *testing.T) {
	f := newSettleFixture(t)
	// stale cache scenario: rates on the row no longer partition the amount
	require.NoError(t, f.db.Model(f.creator).Update("revenue_share", 0.90).Error)

	_, err := f.svc.Settle(context.Background(), f.payer.ID, SupportRequest{CreatorID: f.creator.ID, Amount: 1000})
	assert.ErrorIs(t, err, ErrSplitMismatch)

	payer, _, creator := f.reload(t)
	assert.Zero(t, payer.TotalSupported)
	assert.Zero(t, creator.TotalRevenue)
	assert.Zero(t, f.logCount(t))
}

func TestSettleReconciliationFailsClosedOnNaNShares(t *testing.T) {
	f := newSettleFixture(t)
	// corrupted cached rates whose shares sum to NaN; the reconciliation
	// comparison must abort rather than treat the NaN difference as in range
	require.NoError(t, f.db.Model(f.creator).Updates(map[string]interface{}{
		"revenue_share":       math.Inf(1),
		"fan_commission_rate": math.Inf(-1),
	}).Error)

	_, err := f.svc.Settle(context.Background(), f.payer.ID, SupportRequest{CreatorID: f.creator.ID, Amount: 1000})
	assert.ErrorIs(t, err, ErrSplitMismatch)

	payer, _, creator := f.reload(t)
	assert.Zero(t, payer.TotalSupported)
	assert.Zero(t, creator.TotalRevenue)
	assert.Zero(t, f.logCount(t))
}

func TestSettleCommitFailureRollsBackEverything(t *testing.T) {
	f := newSettleFixture(t)
	// force a failure mid-commit: the supporter upsert has no table to write to
	require.NoError(t, f.db.Migrator().DropTable(&model.Supporter{}))

	_, err := f.svc.Settle(context.Background(), f.payer.ID, SupportRequest{CreatorID: f.creator.ID, Amount: 1000})
	require.Error(t, err)

	payer, _, creator := f.reload(t)
	assert.Zero(t, payer.TotalSupported)
	assert.Zero(t, payer.TotalEarned)
	assert.Zero(t, creator.TotalRevenue)
	assert.Zero(t, f.logCount(t), "support log must not survive a failed commit")
}

func TestSupportHistoryNewestFirstWithCreatorNames(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	for _, amount := range []float64{100, 200, 300} {
		_, err := f.svc.Settle(ctx, f.payer.ID, SupportRequest{CreatorID: f.creator.ID, Amount: amount})
		require.NoError(t, err)
	}

	items, err := f.svc.History(ctx, f.payer.ID, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Test Creator", items[0].CreatorName)
	assert.GreaterOrEqual(t, items[0].Timestamp.UnixNano(), items[2].Timestamp.UnixNano())
}
