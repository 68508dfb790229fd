package workingpoint

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/schhibra/ntuple-tools/internal/selection"
)

const isoWPs = `{
  "PFTkEmEB": {
    "tkIso": {
      "EtaF10": {"0.95": 0.13, "0.9": 0.08},
      "EtaF20": {"0.95": 0.11}
    },
    "tkIsoPV": {
      "EtaF10": {"0.9": 0.05}
    }
  },
  "PFTkEmEE": {
    "tkIso": {
      "EtaABC10": {"0.9": 0.2}
    }
  }
}`

const isoPtWPs = `{
  "PFNFtkEmEE": {
    "EGq5Iso0p2EtaBC": {"10": 27, "20": 16.5},
    "EGq4": {"10": 30}
  }
}`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"data/iso_wps.json":    {Data: []byte(isoWPs)},
		"data/iso_pt_wps.json": {Data: []byte(isoPtWPs)},
		"data/broken.json":     {Data: []byte(`{"PFTkEmEB": [1, 2]}`)},
		"data/badeff.json":     {Data: []byte(`{"O": {"tkIso": {"EtaF10": {"95": 0.1}}}}`)},
		"data/invalid.json":    {Data: []byte(`{"O": `)},
	}
}

func TestReadIso_DocumentOrder(t *testing.T) {
	got, err := ReadIso(testFS(), "data/iso_wps.json", "PFTkEmEB", "EtaF")
	require.NoError(t, err)

	require.Equal(t,
		[]string{"tkIsoWP9510", "tkIsoWP910", "tkIsoWP9520", "tkIsoPVWP910"},
		selection.Names(got))
	require.Equal(t, "tkIso WP95 @ 10", got[0].Label())
	require.Equal(t, "tkIso<=0.13", got[0].Predicate())
	require.Equal(t, "tkIsoPV<=0.05", got[3].Predicate())
}

func TestReadIso_OtherObject(t *testing.T) {
	got, err := ReadIso(testFS(), "data/iso_wps.json", "PFTkEmEE", "EtaABC")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "tkIsoWP910", got[0].Name())
	require.Equal(t, "tkIso<=0.2", got[0].Predicate())
}

func TestReadIso_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		object  string
		region  string
		wantErr error
	}{
		{"missing object", "data/iso_wps.json", "Nope", "EtaF", ErrKeyNotFound},
		{"wrong eta region", "data/iso_wps.json", "PFTkEmEB", "EtaBC", ErrKeyNotFound},
		{"empty eta region", "data/iso_wps.json", "PFTkEmEB", "", ErrMalformed},
		{"not an object", "data/broken.json", "PFTkEmEB", "EtaF", ErrMalformed},
		{"efficiency without dot", "data/badeff.json", "O", "EtaF", ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadIso(testFS(), tt.file, tt.object, tt.region)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadIso_FileErrors(t *testing.T) {
	_, err := ReadIso(testFS(), "data/missing.json", "O", "EtaF")
	require.Error(t, err)

	_, err = ReadIso(testFS(), "data/invalid.json", "O", "EtaF")
	require.Error(t, err)
}

func TestReadIsoPt(t *testing.T) {
	got, err := ReadIsoPt(testFS(), "data/iso_pt_wps.json", "PFNFtkEmEE")
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, "EGq5Iso0p2EtaBC", got[0].IsoSelection)
	require.Equal(t, "@10kHz", got[0].Pt.Name())
	require.Equal(t, "@10kHz", got[0].Pt.Label())
	require.Equal(t, "pt>=27", got[0].Pt.Predicate())

	require.Equal(t, "@20kHz", got[1].Pt.Name())
	require.Equal(t, "pt>=16.5", got[1].Pt.Predicate())

	require.Equal(t, "EGq4", got[2].IsoSelection)
	require.Equal(t, "pt>=30", got[2].Pt.Predicate())
}

func TestReadIsoPt_MissingObject(t *testing.T) {
	_, err := ReadIsoPt(testFS(), "data/iso_pt_wps.json", "PFNFtkEmEB")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFillIso(t *testing.T) {
	got, err := FillIso([]IsoCut{
		{Cut: "tkIso0p2", Pt: []int{27, 16}},
		{Cut: "tkIsoPV0p06", Pt: []int{11}},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"tkIso0p2Pt27", "tkIso0p2Pt16", "tkIsoPV0p06Pt11"}, selection.Names(got))
	require.Equal(t, "tkIso<=0.2 & p_{T}>27GeV", got[0].Label())
	require.Equal(t, "(tkIso<=0.2)&(pt>27)", got[0].Predicate())
	require.Equal(t, "(tkIsoPV<=0.06)&(pt>11)", got[2].Predicate())
}

func TestFillIso_BadCut(t *testing.T) {
	_, err := FillIso([]IsoCut{{Cut: "tkIso", Pt: []int{10}}})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestReadIso_NumberFormatting(t *testing.T) {
	fsys := fstest.MapFS{
		"wps.json": {Data: []byte(`{"O": {"tkIso": {"EtaF10": {"0.9": 0.10, "0.8": 1e-5, "0.7": 2, "0.6": 3.0}}}}`)},
		"pt.json":  {Data: []byte(`{"O": {"EGq4": {"10": 27.50, "20": 16}}}`)},
	}

	iso, err := ReadIso(fsys, "wps.json", "O", "EtaF")
	require.NoError(t, err)
	require.Equal(t, []string{"tkIso<=0.1", "tkIso<=1e-05", "tkIso<=2", "tkIso<=3.0"}, predicates(iso))

	pairs, err := ReadIsoPt(fsys, "pt.json", "O")
	require.NoError(t, err)
	require.Equal(t, "pt>=27.5", pairs[0].Pt.Predicate())
	require.Equal(t, "pt>=16", pairs[1].Pt.Predicate())
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.1, "0.1"},
		{20, "20.0"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{1.5e16, "1.5e+16"},
		{123456.75, "123456.75"},
		{-0.25, "-0.25"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, formatFloat(tt.in))
		})
	}
}

func predicates(sels []selection.Selection) []string {
	out := make([]string, len(sels))
	for i, s := range sels {
		out[i] = s.Predicate()
	}
	return out
}
