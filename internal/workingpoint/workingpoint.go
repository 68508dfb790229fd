package workingpoint

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/schhibra/ntuple-tools/internal/log"
	"github.com/schhibra/ntuple-tools/internal/selection"
)

// IsoPtPair associates the name of an isolation selection with a pt
// threshold selection derived from a rate point.
type IsoPtPair struct {
	IsoSelection string
	Pt           selection.Selection
}

// IsoCut is one row of an isolation/pt grid: an isolation cut name such as
// "tkIso0p2" and the pt thresholds to pair it with.
type IsoCut struct {
	Cut string `yaml:"cut" mapstructure:"cut" validate:"required"`
	Pt  []int  `yaml:"pt" mapstructure:"pt" validate:"required,min=1"`
}

// ReadIso reads {object: {isoVar: {ptPoint: {eff: cut}}}} and returns one
// selection per efficiency entry of object:
//
//	name      {isoVar}WP{eff digits}{pt suffix}
//	label     {isoVar} WP{eff digits} @ {pt suffix}
//	predicate {isoVar}<={cut}
//
// The eff digits are the second "."-separated field of the efficiency key
// ("0.95" gives "95"); the pt suffix is the second field of ptPoint split on
// etaRegion ("EtaF10" with region "EtaF" gives "10").
func ReadIso(fsys fs.FS, file, object, etaRegion string) ([]selection.Selection, error) {
	if etaRegion == "" {
		return nil, fmt.Errorf("%w: empty eta region", ErrMalformed)
	}

	root, err := readDocument(fsys, file)
	if err != nil {
		return nil, err
	}
	obj, err := lookup(root, object, file)
	if err != nil {
		return nil, err
	}
	isoVars, err := entries(obj, object)
	if err != nil {
		return nil, err
	}

	result := make([]selection.Selection, 0)
	for _, iv := range isoVars {
		ptPoints, err := entries(iv.value, object+"."+iv.key)
		if err != nil {
			return nil, err
		}
		for _, pp := range ptPoints {
			ptStr, err := segment(pp.key, etaRegion)
			if err != nil {
				return nil, fmt.Errorf("%w: eta region %q in %s.%s.%s", ErrKeyNotFound, etaRegion, object, iv.key, pp.key)
			}
			path := object + "." + iv.key + "." + pp.key
			wps, err := entries(pp.value, path)
			if err != nil {
				return nil, err
			}
			for _, wp := range wps {
				effStr, err := segment(wp.key, ".")
				if err != nil {
					return nil, fmt.Errorf("%w: efficiency key %q in %s", ErrMalformed, wp.key, path)
				}
				cut, err := scalar(wp.value, path+"."+wp.key)
				if err != nil {
					return nil, err
				}
				result = append(result, selection.New(
					fmt.Sprintf("%sWP%s%s", iv.key, effStr, ptStr),
					fmt.Sprintf("%s WP%s @ %s", iv.key, effStr, ptStr),
					fmt.Sprintf("%s<=%s", iv.key, cut),
				))
			}
		}
	}

	log.Debug(log.CatWP, "loaded iso working points", "file", file, "object", object, "region", etaRegion, "count", len(result))
	return result, nil
}

// ReadIsoPt reads {object: {isoSelection: {ratePoint: ptCut}}} and returns,
// in document order, each iso selection name paired with the selection
// "@{ratePoint}kHz" whose predicate is "pt>={ptCut}".
func ReadIsoPt(fsys fs.FS, file, object string) ([]IsoPtPair, error) {
	root, err := readDocument(fsys, file)
	if err != nil {
		return nil, err
	}
	obj, err := lookup(root, object, file)
	if err != nil {
		return nil, err
	}
	isoSels, err := entries(obj, object)
	if err != nil {
		return nil, err
	}

	result := make([]IsoPtPair, 0)
	for _, is := range isoSels {
		path := object + "." + is.key
		rates, err := entries(is.value, path)
		if err != nil {
			return nil, err
		}
		for _, rp := range rates {
			ptCut, err := scalar(rp.value, path+"."+rp.key)
			if err != nil {
				return nil, err
			}
			name := "@" + rp.key + "kHz"
			result = append(result, IsoPtPair{
				IsoSelection: is.key,
				Pt:           selection.New(name, name, "pt>="+ptCut),
			})
		}
	}

	log.Debug(log.CatWP, "loaded iso/pt working points", "file", file, "object", object, "count", len(result))
	return result, nil
}

// FillIso expands an isolation/pt grid. For cut "tkIso0p2" and pt 27 it builds
// name "tkIso0p2Pt27", label "tkIso<=0.2 & p_{T}>27GeV" and predicate
// "(tkIso<=0.2)&(pt>27)".
func FillIso(grid []IsoCut) ([]selection.Selection, error) {
	result := make([]selection.Selection, 0)
	for _, row := range grid {
		parts := strings.Split(row.Cut, "0p")
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: iso cut %q has no \"0p\" separator", ErrMalformed, row.Cut)
		}
		isoVar, value := parts[0], parts[1]
		for _, pt := range row.Pt {
			ptStr := strconv.Itoa(pt)
			result = append(result, selection.New(
				row.Cut+"Pt"+ptStr,
				isoVar+"<=0."+value+" & p_{T}>"+ptStr+"GeV",
				"("+isoVar+"<=0."+value+")&(pt>"+ptStr+")",
			))
		}
	}
	return result, nil
}

// segment returns the text between the first and second occurrence of sep.
func segment(s, sep string) (string, error) {
	parts := strings.Split(s, sep)
	if len(parts) < 2 {
		return "", fmt.Errorf("%q not in %q", sep, s)
	}
	return parts[1], nil
}
