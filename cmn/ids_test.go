package cmn

import "testing"

func TestClassifyID(t *testing.T) {
	cases := []struct {
		id   ObjID
		want Kind
	}{
		{"/home/test/d", KindDomain},
		{"g-0feed08c-3e75-11ea-b349-0242ac110002", KindGroup},
		{"d-0feed08c-3e75-11ea-b349-0242ac110002", KindDataset},
		{"t-0feed08c-3e75-11ea-b349-0242ac110002", KindDatatype},
		{"d-0feed08c-3e75-11ea-b349-0242ac110002/0_0", KindChunk},
		{"d-0feed08c-3e75-11ea-b349-0242ac110002/0_0_3", KindChunk},
		{"not-a-uuid", KindInvalid},
		{"", KindInvalid},
		{"g-too-short", KindInvalid},
	}
	for _, c := range cases {
		if got := ClassifyID(c.id); got != c.want {
			t.Errorf("ClassifyID(%q) = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestDatasetOfAndCoordSuffix(t *testing.T) {
	dset := ObjID("d-0feed08c-3e75-11ea-b349-0242ac110002")
	chunk := dset + "/1_2"

	got, err := DatasetOf(chunk)
	if err != nil {
		t.Fatalf("DatasetOf: %v", err)
	}
	if got != dset {
		t.Errorf("DatasetOf(%q) = %q, want %q", chunk, got, dset)
	}
	if suffix := CoordSuffix(chunk); suffix != "1_2" {
		t.Errorf("CoordSuffix(%q) = %q, want %q", chunk, suffix, "1_2")
	}

	if _, err := DatasetOf(dset); err == nil {
		t.Error("DatasetOf on a non-chunk id should fail")
	}
}

func TestKeyOfAndIDFromKeyRoundTrip(t *testing.T) {
	ids := []ObjID{
		"/home/test/d",
		"g-0feed08c-3e75-11ea-b349-0242ac110002",
		"d-0feed08c-3e75-11ea-b349-0242ac110002/0_0",
	}
	for _, id := range ids {
		key := KeyOf(id)
		got, ok := IDFromKey(key)
		if !ok {
			t.Fatalf("IDFromKey(%q) reported not-an-id", key)
		}
		if got != id {
			t.Errorf("round trip %q -> %q -> %q, want %q", id, key, got, id)
		}
	}

	if _, ok := IDFromKey("home/test/d/.groups.txt"); ok {
		t.Error("IDFromKey should reject manifest keys")
	}
}

func TestDomainKey(t *testing.T) {
	if got := DomainKey("/home/test/d"); got != "home/test/d" {
		t.Errorf("DomainKey = %q, want %q", got, "home/test/d")
	}
}
