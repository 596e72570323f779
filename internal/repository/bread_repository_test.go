package repository

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/mariabakes/breads-rest-api/internal/domain"
)

func seedBakery(t *testing.T, db *gorm.DB) *domain.Bakery {
	t.Helper()
	bakery := &domain.Bakery{Name: "Maria's", Address: "1 Rye Street"}
	if err := db.Create(bakery).Error; err != nil {
		t.Fatalf("seed bakery: %v", err)
	}
	return bakery
}

func TestBreadRepositoryListPagedFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewBreadRepository(db)
	bakery := seedBakery(t, db)

	for i := 0; i < 25; i++ {
		bread := &domain.Bread{
			Name:       fmt.Sprintf("bread-%02d", i),
			Price:      2.5,
			Currency:   "EUR",
			GlutenFree: i%2 == 0,
			BakeryID:   bakery.ID,
		}
		if err := repo.Create(bread); err != nil {
			t.Fatalf("create bread %d: %v", i, err)
		}
	}

	page, err := repo.ListPaged(BreadListQuery{PageRequest: PageRequest{Page: 2, PageSize: 10}})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if page.Total != 25 || page.TotalPages != 3 {
		t.Fatalf("expected total=25 pages=3, got total=%d pages=%d", page.Total, page.TotalPages)
	}
	if len(page.Items) != 10 {
		t.Fatalf("expected 10 items on page 2, got %d", len(page.Items))
	}
	if page.Items[0].Name != "bread-10" {
		t.Fatalf("unexpected first item on page 2: %q", page.Items[0].Name)
	}

	glutenFree := true
	filtered, err := repo.ListPaged(BreadListQuery{
		PageRequest: PageRequest{Page: 1, PageSize: 50},
		GlutenFree:  &glutenFree,
	})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if filtered.Total != 13 {
		t.Fatalf("expected 13 gluten free breads, got %d", filtered.Total)
	}
}

func TestBreadRepositoryTagLinking(t *testing.T) {
	db := newTestDB(t)
	breads := NewBreadRepository(db)
	tags := NewTagRepository(db)
	bakery := seedBakery(t, db)

	bread := &domain.Bread{Name: "sourdough", Price: 4, Currency: "EUR", BakeryID: bakery.ID}
	if err := breads.Create(bread); err != nil {
		t.Fatalf("create bread: %v", err)
	}
	tag := &domain.Tag{Name: "organic", BakeryID: bakery.ID}
	if err := tags.Create(tag); err != nil {
		t.Fatalf("create tag: %v", err)
	}

	if err := breads.AppendTag(bread, tag); err != nil {
		t.Fatalf("append tag: %v", err)
	}
	count, err := tags.CountBreads(tag.ID)
	if err != nil || count != 1 {
		t.Fatalf("CountBreads = %d, %v; want 1", count, err)
	}

	if err := breads.RemoveTag(bread, tag); err != nil {
		t.Fatalf("remove tag: %v", err)
	}
	count, err = tags.CountBreads(tag.ID)
	if err != nil || count != 0 {
		t.Fatalf("CountBreads after unlink = %d, %v; want 0", count, err)
	}
}

func TestBakeryRepositoryUniqueName(t *testing.T) {
	db := newTestDB(t)
	repo := NewBakeryRepository(db)

	if err := repo.Create(&domain.Bakery{Name: "Maria's", Address: "1 Rye Street"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(&domain.Bakery{Name: "Maria's", Address: "2 Wheat Lane"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestBreadRepositoryDeleteMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewBreadRepository(db)

	if err := repo.Delete(99); !errors.Is(err, ErrBreadNotFound) {
		t.Fatalf("expected ErrBreadNotFound, got %v", err)
	}
}
