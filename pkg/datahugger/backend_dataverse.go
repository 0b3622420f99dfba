// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// dataverseDomains lists the institutional Dataverse installations this
// backend recognizes directly from a landing-page URL.
var dataverseDomains = map[string]struct{}{
	"www.march.es": {}, "www.murray.harvard.edu": {}, "abacus.library.ubc.ca": {},
	"ada.edu.au": {}, "adattar.unideb.hu": {}, "archive.data.jhu.edu": {},
	"borealisdata.ca": {}, "dados.ipb.pt": {}, "dadosdepesquisa.fiocruz.br": {},
	"darus.uni-stuttgart.de": {}, "data.aussda.at": {}, "data.cimmyt.org": {},
	"data.fz-juelich.de": {}, "data.goettingen-research-online.de": {}, "data.inrae.fr": {},
	"data.scielo.org": {}, "data.sciencespo.fr": {}, "data.tdl.org": {},
	"data.univ-gustave-eiffel.fr": {}, "datarepositorium.uminho.pt": {}, "datasets.iisg.amsterdam": {},
	"dataspace.ust.hk": {}, "dataverse.asu.edu": {}, "dataverse.cirad.fr": {},
	"dataverse.csuc.cat": {}, "dataverse.harvard.edu": {}, "dataverse.iit.it": {},
	"dataverse.ird.fr": {}, "dataverse.lib.umanitoba.ca": {}, "dataverse.lib.unb.ca": {},
	"dataverse.lib.virginia.edu": {}, "dataverse.nl": {}, "dataverse.no": {},
	"dataverse.openforestdata.pl": {}, "dataverse.scholarsportal.info": {}, "dataverse.theacss.org": {},
	"dataverse.ucla.edu": {}, "dataverse.unc.edu": {}, "dataverse.unimi.it": {},
	"dataverse.yale-nus.edu.sg": {}, "dorel.univ-lorraine.fr": {}, "dvn.fudan.edu.cn": {},
	"edatos.consorciomadrono.es": {}, "edmond.mpdl.mpg.de": {}, "heidata.uni-heidelberg.de": {},
	"lida.dataverse.lt": {}, "mxrdr.icm.edu.pl": {}, "osnadata.ub.uni-osnabrueck.de": {},
	"planetary-data-portal.org": {}, "qdr.syr.edu": {}, "rdm.aau.edu.et": {},
	"rdr.kuleuven.be": {}, "rds.icm.edu.pl": {}, "recherche.data.gouv.fr": {},
	"redu.unicamp.br": {}, "repod.icm.edu.pl": {}, "repositoriopesquisas.ibict.br": {},
	"research-data.urosario.edu.co": {}, "researchdata.cuhk.edu.hk": {}, "researchdata.ntu.edu.sg": {},
	"rin.lipi.go.id": {}, "ssri.is": {}, "www.seanoe.org": {},
	"trolling.uit.no": {}, "www.sodha.be": {}, "www.uni-hildesheim.de": {},
	"dataverse.acg.maine.edu": {}, "dataverse.icrisat.org": {}, "datos.pucp.edu.pe": {},
	"datos.uchile.cl": {}, "opendata.pku.edu.cn": {},
}

const dataverseLatestPublished = ":latest-published"

func init() {
	Register("dataverse", func(u *url.URL) (Backend, string, bool) {
		if _, ok := dataverseDomains[strings.ToLower(u.Hostname())]; !ok {
			return nil, "", false
		}
		segs := pathSegments(u)
		if len(segs) == 0 {
			return nil, "", false
		}
		typ, isXhtml := strings.CutSuffix(segs[0], ".xhtml")
		if !isXhtml {
			return nil, "", false
		}
		id := u.Query().Get("persistentId")
		if id == "" {
			return nil, "", false
		}
		base := fmt.Sprintf("%s://%s", u.Scheme, u.Host)
		switch typ {
		case "dataset":
			return dataverseDatasetBackend{baseURL: base}, id, true
		case "file":
			return dataverseFileBackend{baseURL: base}, id, true
		default:
			return nil, "", false
		}
	})
}

type dataverseFileRecord struct {
	DataFile struct {
		Filename string `json:"filename"`
		ID       int64  `json:"id"`
		Filesize int64  `json:"filesize"`
		MD5      string `json:"md5"`
	} `json:"dataFile"`
}

func dataverseFileEntry(dir DirHandle, baseURL string, rec dataverseFileRecord) (Entry, error) {
	path, err := dir.Path.Join(rec.DataFile.Filename)
	if err != nil {
		return nil, newError(KindParse, "invalid dataverse filename", err)
	}
	downloadURL := fmt.Sprintf("%s/api/access/datafile/%d", baseURL, rec.DataFile.ID)
	var checksums []Checksum
	if rec.DataFile.MD5 != "" {
		if cs, cerr := NewChecksum("md5", rec.DataFile.MD5); cerr == nil {
			checksums = append(checksums, cs)
		}
	}
	size := rec.DataFile.Filesize
	return NewFileEntry(path, dir.Root, downloadURL, &size, checksums)
}

// dataverseDatasetBackend lists every file attached to a dataset's latest
// published version in one request.
type dataverseDatasetBackend struct{ baseURL string }

func (b dataverseDatasetBackend) DeriveRootURL(id string) string {
	return fmt.Sprintf("%s/api/datasets/:persistentId/versions/%s/?persistentId=%s", b.baseURL, dataverseLatestPublished, url.QueryEscape(id))
}

func (b dataverseDatasetBackend) InitialListing(id string) DirHandle {
	root := b.DeriveRootURL(id)
	return DirHandle{Path: "", Root: root, APIURL: root}
}

func (b dataverseDatasetBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	var page struct {
		Data struct {
			Files []dataverseFileRecord `json:"files"`
		} `json:"data"`
	}
	if err := c.GetJSON(ctx, dir.APIURL, nil, &page); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(page.Data.Files))
	for _, rec := range page.Data.Files {
		e, err := dataverseFileEntry(dir, b.baseURL, rec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// dataverseFileBackend lists a single standalone file record, for landing
// pages that identify one file rather than a dataset.
type dataverseFileBackend struct{ baseURL string }

func (b dataverseFileBackend) DeriveRootURL(id string) string {
	return fmt.Sprintf("%s/api/files/:persistentId/versions/%s/?persistentId=%s", b.baseURL, dataverseLatestPublished, url.QueryEscape(id))
}

func (b dataverseFileBackend) InitialListing(id string) DirHandle {
	root := b.DeriveRootURL(id)
	return DirHandle{Path: "", Root: root, APIURL: root}
}

func (b dataverseFileBackend) List(ctx context.Context, c *Client, dir DirHandle) ([]Entry, error) {
	var page struct {
		Data dataverseFileRecord `json:"data"`
	}
	if err := c.GetJSON(ctx, dir.APIURL, nil, &page); err != nil {
		return nil, err
	}
	e, err := dataverseFileEntry(dir, b.baseURL, page.Data)
	if err != nil {
		return nil, err
	}
	return []Entry{e}, nil
}
