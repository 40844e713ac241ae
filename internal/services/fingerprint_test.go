package services

import "testing"

func TestFingerprintProfile(t *testing.T) {
	value := "Acme Corp"
	other := "Acme Inc"

	cases := []struct {
		name string
		a    map[string]*string
		b    map[string]*string
		same bool
	}{
		{
			name: "identical_maps_match",
			a:    map[string]*string{"company_name": &value},
			b:    map[string]*string{"company_name": &value},
			same: true,
		},
		{
			name: "value_change_differs",
			a:    map[string]*string{"company_name": &value},
			b:    map[string]*string{"company_name": &other},
			same: false,
		},
		{
			name: "added_field_differs",
			a:    map[string]*string{"company_name": &value},
			b:    map[string]*string{"company_name": &value, "founded": &other},
			same: false,
		},
		{
			name: "nil_and_empty_both_empty",
			a:    nil,
			b:    map[string]*string{},
			same: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ha := FingerprintProfile(tc.a)
			hb := FingerprintProfile(tc.b)
			if (ha == hb) != tc.same {
				t.Fatalf("FingerprintProfile: got %q vs %q, want same=%v", ha, hb, tc.same)
			}
		})
	}

	if got := FingerprintProfile(nil); got != "" {
		t.Fatalf("nil profile fingerprint = %q, want empty", got)
	}
	if got := FingerprintProfile(map[string]*string{"k": &value}); len(got) != digestLength {
		t.Fatalf("fingerprint length = %d, want %d", len(got), digestLength)
	}
}

func TestFingerprintRequirementsOrderIndependent(t *testing.T) {
	a := RequirementItem{ID: "a", Title: "Uptime", Content: "99.9%"}
	b := RequirementItem{ID: "b", Title: "Support", Content: "24/7"}

	h1 := FingerprintRequirements([]RequirementItem{a, b})
	h2 := FingerprintRequirements([]RequirementItem{b, a})
	if h1 != h2 {
		t.Fatalf("reordered requirements changed fingerprint: %q vs %q", h1, h2)
	}

	edited := RequirementItem{ID: "b", Title: "Support", Content: "business hours"}
	h3 := FingerprintRequirements([]RequirementItem{a, edited})
	if h3 == h1 {
		t.Fatalf("content edit did not change fingerprint")
	}

	if got := FingerprintRequirements(nil); got != "" {
		t.Fatalf("empty requirements fingerprint = %q, want empty", got)
	}
}

func TestFingerprintReferenceDocs(t *testing.T) {
	x := ReferenceDocItem{ID: "1", Text: "SOC2 report"}
	y := ReferenceDocItem{ID: "2", Text: "pricing sheet"}

	h1 := FingerprintReferenceDocs([]ReferenceDocItem{x, y})
	h2 := FingerprintReferenceDocs([]ReferenceDocItem{y, x})
	if h1 != h2 {
		t.Fatalf("reordered docs changed fingerprint: %q vs %q", h1, h2)
	}

	h3 := FingerprintReferenceDocs([]ReferenceDocItem{x, {ID: "2", Text: "updated pricing"}})
	if h3 == h1 {
		t.Fatalf("text edit did not change fingerprint")
	}

	if got := FingerprintReferenceDocs([]ReferenceDocItem{}); got != "" {
		t.Fatalf("empty docs fingerprint = %q, want empty", got)
	}
}

func TestFingerprintQuestion(t *testing.T) {
	if got := FingerprintQuestion(""); got != "" {
		t.Fatalf("empty question fingerprint = %q, want empty", got)
	}
	h1 := FingerprintQuestion("Describe your security posture")
	h2 := FingerprintQuestion("Describe your security posture")
	if h1 != h2 {
		t.Fatalf("fingerprint not deterministic: %q vs %q", h1, h2)
	}
	if h1 == FingerprintQuestion("Describe your pricing") {
		t.Fatalf("different question text produced identical fingerprints")
	}
}
