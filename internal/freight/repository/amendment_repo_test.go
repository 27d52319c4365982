package repository

import (
	"context"
	"testing"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/testutil"
)

func TestAmendmentGenerateCodeSkipsTakenCodes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	taken := FormatAmendmentCode(now, 1)
	if err := db.Create(&entity.ShipmentAmendment{
		ID:             "amd-taken",
		Code:           taken,
		ShipmentID:     "shp-1",
		TrackingNumber: "TF-26-00001",
		RequestedBy:    "client@test.com",
		Reason:         "Consignee changed",
		Status:         entity.AmendmentStatusPending,
	}).Error; err != nil {
		t.Fatalf("seed amendment: %v", err)
	}

	// 两个并发请求抽到同一个数时，后者必须换号
	draws := []int{1, 2}
	repo := NewAmendmentRepository(db)
	repo.rnd = func(int) int {
		v := draws[0]
		draws = draws[1:]
		return v
	}

	code, err := repo.GenerateCode(ctx)
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if code == taken {
		t.Fatalf("GenerateCode returned taken code %s", code)
	}
	if want := FormatAmendmentCode(now, 2); code != want {
		t.Fatalf("expected %s, got %s", want, code)
	}
}

func TestAmendmentGenerateCodeFormat(t *testing.T) {
	repo := NewAmendmentRepository(testutil.SetupTestDB(t))

	code, err := repo.GenerateCode(context.Background())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if len(code) != len("AMD-2026-00001") || code[:4] != "AMD-" {
		t.Fatalf("unexpected amendment code %q", code)
	}
}
