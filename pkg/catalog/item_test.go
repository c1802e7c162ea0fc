package catalog

import (
	"encoding/json"
	"testing"
)

func TestDedupe_KeepsFirstOccurrence(t *testing.T) {
	items := []Item{
		{ID: 1, Type: "Hat", Name: "first"},
		{ID: 2, Type: "Hat"},
		{ID: 1, Type: "Hat", Name: "second"},
		{ID: 1, Type: "Bundle"},
		{ID: 3},
		{ID: 3},
	}

	got := Dedupe(items)

	want := []DedupeKey{{1, "Hat"}, {2, "Hat"}, {1, "Bundle"}, {3, ""}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(got), len(want), got)
	}
	for i, k := range want {
		if got[i].Key() != k {
			t.Errorf("item %d key = %v, want %v", i, got[i].Key(), k)
		}
	}
	if got[0].Name != "first" {
		t.Errorf("kept %q, want first occurrence", got[0].Name)
	}
}

func TestDedupe_Empty(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Errorf("Dedupe(nil) = %v", got)
	}
}

func TestResellers_String(t *testing.T) {
	tests := []struct {
		name string
		r    *Resellers
		want string
	}{
		{"nil", nil, ""},
		{"failed", &Resellers{Failed: true}, "error"},
		{"empty", &Resellers{}, "[]"},
		{"names", &Resellers{Names: []string{"a", "b"}}, `["a","b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecord_HasResellersKey(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantKey bool
		wantVal *bool
	}{
		{"absent", `{"id": 1}`, false, nil},
		{"null", `{"id": 1, "hasResellers": null}`, true, nil},
		{"false", `{"id": 1, "hasResellers": false}`, true, boolp(false)},
		{"true", `{"id": 1, "hasResellers": true}`, true, boolp(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			if err := json.Unmarshal([]byte(tt.json), &r); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if r.HasResellersKey != tt.wantKey {
				t.Errorf("HasResellersKey = %v, want %v", r.HasResellersKey, tt.wantKey)
			}
			if (r.HasResellers == nil) != (tt.wantVal == nil) ||
				(r.HasResellers != nil && *r.HasResellers != *tt.wantVal) {
				t.Errorf("HasResellers = %v, want %v", r.HasResellers, tt.wantVal)
			}
			if r.ID != 1 {
				t.Errorf("ID = %d, want 1", r.ID)
			}
		})
	}
}

func TestRecord_DecodesSearchEntry(t *testing.T) {
	raw := `{
		"id": 1365767,
		"itemType": "Asset",
		"assetType": 8,
		"name": "Valkyrie Helm",
		"itemRestrictions": ["Limited"],
		"creatorName": "Roblox",
		"creatorTargetId": 1,
		"price": null,
		"lowestPrice": 180000,
		"collectibleItemId": null
	}`

	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.AssetType == nil || *r.AssetType != 8 {
		t.Errorf("AssetType = %v", r.AssetType)
	}
	if r.Price != nil {
		t.Errorf("Price = %v, want nil", *r.Price)
	}
	if r.LowestPrice == nil || *r.LowestPrice != 180000 {
		t.Errorf("LowestPrice = %v", r.LowestPrice)
	}
	if r.CollectibleID() != "" {
		t.Errorf("CollectibleID() = %q, want empty", r.CollectibleID())
	}
	if r.HasResellersKey {
		t.Error("HasResellersKey = true, want false")
	}
}

func boolp(v bool) *bool { return &v }
