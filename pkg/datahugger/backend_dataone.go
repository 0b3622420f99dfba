// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"encoding/xml"
	"net/url"
	"strconv"
	"strings"
)

// dataoneDomains lists the institutional DataOne member-node hosts this
// backend recognizes directly from a landing-page URL.
var dataoneDomains = map[string]struct{}{
	"arcticdata.io":                     {},
	"knb.ecoinformatics.org":            {},
	"data.pndb.fr":                      {},
	"opc.dataone.org":                   {},
	"portal.edirepository.org":          {},
	"goa.nceas.ucsb.edu":                {},
	"data.piscoweb.org":                 {},
	"adc.arm.gov":                       {},
	"scidb.cn":                          {},
	"data.ess-dive.lbl.gov":             {},
	"hydroshare.org":                    {},
	"ecl.earthchem.org":                 {},
	"get.iedadata.org":                  {},
	"usap-dc.org":                       {},
	"iys.hakai.org":                     {},
	"doi.pangaea.de":                    {},
	"rvdata.us":                         {},
	"sead-published.ncsa.illinois.edu":  {},
}

func init() {
	Register("dataone", func(u *url.URL) (Backend, string, bool) {
		if _, ok := dataoneDomains[strings.ToLower(u.Hostname())]; !ok {
			return nil, "", false
		}
		segs := pathSegments(u)
		for i, seg := range segs {
			if strings.HasPrefix(seg, "doi") {
				// A DOI carries its own "/", so the id runs from this
				// segment to the end of the path.
				return dataoneBackend{}, strings.Join(segs[i:], "/"), true
			}
		}
		return nil, "", false
	})
}

// dataoneBackend fetches the EML metadata document DataOne exposes for a
// given object id and extracts downloadable entities from it. DataOne
// records are flat: every entity hangs directly off the dataset, so List
// never returns a DirEntry and the traversal is one level deep.
type dataoneBackend struct{}

func (dataoneBackend) DeriveRootURL(id string) string {
	return "https://cn.dataone.org/cn/v2/object/" + id
}

func (b dataoneBackend) InitialListing(id string) DirHandle {
	root := b.DeriveRootURL(id)
	return DirHandle{Path: "", Root: root, APIURL: root}
}

type emlDataset struct {
	OtherEntity []emlEntity `xml:"dataset>otherEntity"`
	DataTable   []emlEntity `xml:"dataset>dataTable"`
}

type emlEntity struct {
	EntityName string `xml:"entityName"`
	Physical   struct {
		Size struct {
			Value string `xml:",chardata"`
		} `xml:"size"`
		Distribution struct {
			Online struct {
				URL []emlURL `xml:"url"`
			} `xml:"online"`
		} `xml:"distribution"`
	} `xml:"physical"`
}

type emlURL struct {
	Function string `xml:"function,attr"`
	Value    string `xml:",chardata"`
}

func (b dataoneBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	resp, err := c.Get(ctx, dir.APIURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc emlDataset
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, newError(KindParse, "decode dataone eml document", err)
	}

	entities := append(append([]emlEntity{}, doc.OtherEntity...), doc.DataTable...)
	entries := make([]Entry, 0, len(entities))
	for _, ent := range entities {
		var downloadURL string
		for _, u := range ent.Physical.Distribution.Online.URL {
			if u.Function == "download" {
				downloadURL = strings.TrimSpace(u.Value)
				break
			}
		}
		if downloadURL == "" || ent.EntityName == "" {
			continue
		}
		path, err := dir.Path.Join(ent.EntityName)
		if err != nil {
			return nil, newError(KindParse, "invalid dataone entity name", err)
		}
		var size *int64
		if v := strings.TrimSpace(ent.Physical.Size.Value); v != "" {
			if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				size = &n
			}
		}
		fe, err := NewFileEntry(path, dir.Root, downloadURL, size, nil)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fe)
	}
	return entries, nil
}
