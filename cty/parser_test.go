package cty

import "testing"

const sampleCTY = `# comment line
United States:             05:  08:  NA:   37.53:    91.67:     5.0:  K,
    AA,AB,KH6(31)[61],N,W,
    =KH6AB(31)[61],=W1AW;
Slovenia:                  15:  28:  EU:   46.00:   -14.00:    -1.0:  S5,
    S50,S51,S52,S53,S54,S55,S56,S57,S58,S59;
Canada:                    05:  09:  NA:   44.35:    78.75:     5.0:  *VE,VA,VO,VY;
`

func TestParseCTYDatContinuationRecords(t *testing.T) {
	entries := ParseCTYDat(sampleCTY)
	if len(entries) == 0 {
		t.Fatal("expected entries")
	}

	byPrefix := make(map[string]PrefixEntry)
	for _, e := range entries {
		key := e.Prefix
		if e.Exact {
			key = "=" + key
		}
		byPrefix[key] = e
	}

	us, ok := byPrefix["K"]
	if !ok {
		t.Fatal("expected K prefix entry")
	}
	if us.Country != "United States" || us.CQZone != 5 || us.ITUZone != 8 || us.Continent != "NA" {
		t.Errorf("unexpected header fields: %+v", us)
	}
	if us.Lon != -91.67 {
		t.Errorf("longitude sign must be inverted, got %v", us.Lon)
	}

	kh6, ok := byPrefix["KH6"]
	if !ok {
		t.Fatal("expected KH6 prefix entry")
	}
	if kh6.CQZone != 31 || kh6.ITUZone != 61 {
		t.Errorf("zone overrides not applied: %+v", kh6)
	}

	exact, ok := byPrefix["=KH6AB"]
	if !ok {
		t.Fatal("expected exact entry for =KH6AB")
	}
	if !exact.Exact || exact.CQZone != 31 {
		t.Errorf("exact entry malformed: %+v", exact)
	}

	ve, ok := byPrefix["VE"]
	if !ok {
		t.Fatal("expected VE entry with * marker stripped")
	}
	if !ve.Primary {
		t.Error("first token of a record should carry the primary flag")
	}
}

func TestParseCTYDatSortOrder(t *testing.T) {
	entries := ParseCTYDat(sampleCTY)
	seenNonExact := false
	lastLen := 1 << 30
	for _, e := range entries {
		if e.Exact {
			if seenNonExact {
				t.Fatal("exact entries must sort before prefix entries")
			}
			continue
		}
		seenNonExact = true
		if len(e.Prefix) > lastLen {
			t.Fatalf("prefix entries must sort longest first: %q after length %d", e.Prefix, lastLen)
		}
		lastLen = len(e.Prefix)
	}
}

func TestParseCTYDatRejectsHTML(t *testing.T) {
	if got := ParseCTYDat("<html><body>404 not found</body></html>"); len(got) != 0 {
		t.Fatalf("HTML-shaped input must parse to zero entries, got %d", len(got))
	}
	if got := ParseCTYDat(""); len(got) != 0 {
		t.Fatalf("empty input must parse to zero entries, got %d", len(got))
	}
}

func TestParseCTYDatMalformedRecordSkipped(t *testing.T) {
	entries := ParseCTYDat("only:three:fields;\n" + sampleCTY)
	for _, e := range entries {
		if e.Country == "only" {
			t.Fatal("record with fewer than 8 fields must be skipped")
		}
	}
	if len(entries) == 0 {
		t.Fatal("valid records after a malformed one must still parse")
	}
}
