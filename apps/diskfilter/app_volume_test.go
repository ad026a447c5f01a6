//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package diskfilter

import (
	"io/ioutil"
	"net/http"
	"sort"
	"testing"

	"github.com/heketi/tests"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/testutils"
	"github.com/heketi/diskfilter/pkg/utils"
)

func TestAppVolumeList(t *testing.T) {
	s := newTestServer(t, false, "hd0", "hd1", "crypt0", "crypt1")
	defer s.Close()

	r, err := http.Get(s.url("volumes"))
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusOK)

	var list api.VolumeListResponse
	err = utils.GetJsonFromResponse(r, &list)
	tests.Assert(t, err == nil)
	sort.Strings(list.Volumes)
	tests.Assert(t, len(list.Volumes) == 2, list.Volumes)
	tests.Assert(t, list.Volumes[0] == "md/mirror")
	tests.Assert(t, list.Volumes[1] == "md/secret")
}

func TestAppVolumeInfo(t *testing.T) {
	s := newTestServer(t, false, "hd0", "hd1")
	defer s.Close()

	r, err := http.Get(s.url("volumes", "md/mirror"))
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusOK, r.StatusCode)

	var info api.VolumeInfo
	err = utils.GetJsonFromResponse(r, &info)
	tests.Assert(t, err == nil)
	tests.Assert(t, info.Name == "md/mirror")
	tests.Assert(t, info.Size == 32)
	tests.Assert(t, info.Driver == "mdraid1x")
	tests.Assert(t, info.Readable)
	tests.Assert(t, !info.Degraded)
	tests.Assert(t, len(info.Members) == 2)
	tests.Assert(t, info.Members[0].Disk == "hd0", info.Members[0])
	tests.Assert(t, len(info.Segments) == 1)
	tests.Assert(t, info.Segments[0].Level == "mirror", info.Segments[0].Level)

	r, err = http.Get(s.url("volumes", "md/nothere"))
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusNotFound)

	r, err = http.Get(s.url("volumes", "hd0"))
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusNotFound)
}

func TestAppVolumeInfoMissingMember(t *testing.T) {
	s := newTestServer(t, false, "hd1")
	defer s.Close()

	r, err := http.Get(s.url("volumes", "md/mirror"))
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusOK)

	var info api.VolumeInfo
	err = utils.GetJsonFromResponse(r, &info)
	tests.Assert(t, err == nil)
	tests.Assert(t, info.Readable)
	// any copy of a mirror serves every read
	tests.Assert(t, !info.Degraded)
	tests.Assert(t, info.Members[0].Missing())
	tests.Assert(t, !info.Members[1].Missing())
}

func readVolume(t *testing.T, s *testServer, name, query string) (*http.Response, []byte) {
	r, err := http.Get(s.url("volumes", name, "data") + query)
	tests.Assert(t, err == nil)
	body, err := ioutil.ReadAll(r.Body)
	r.Body.Close()
	tests.Assert(t, err == nil)
	return r, body
}

func TestAppVolumeRead(t *testing.T) {
	s := newTestServer(t, false, "hd0", "hd1")
	defer s.Close()

	r, body := readVolume(t, s, "md/mirror", "?offset=3&length=2")
	tests.Assert(t, r.StatusCode == http.StatusOK, r.StatusCode, string(body))
	tests.Assert(t, r.Header.Get("Content-Type") == "application/octet-stream")
	tests.Assert(t, len(body) == 2*disk.SectorSize)
	tests.Assert(t, body[0] == testutils.Pattern(0, 3))
	tests.Assert(t, body[disk.SectorSize-1] == testutils.Pattern(0, 3))
	tests.Assert(t, body[disk.SectorSize] == testutils.Pattern(0, 4))

	r, _ = readVolume(t, s, "md/mirror", "?length=1")
	tests.Assert(t, r.StatusCode == http.StatusOK)

	for _, query := range []string{
		"",
		"?offset=1&length=0",
		"?offset=1&length=4096",
		"?offset=abc&length=1",
		"?offset=1&length=-1",
	} {
		r, _ = readVolume(t, s, "md/mirror", query)
		tests.Assert(t, r.StatusCode == http.StatusBadRequest, query, r.StatusCode)
	}

	r, _ = readVolume(t, s, "md/mirror", "?offset=31&length=2")
	tests.Assert(t, r.StatusCode == http.StatusRequestedRangeNotSatisfiable, r.StatusCode)

	r, _ = readVolume(t, s, "md/nothere", "?length=1")
	tests.Assert(t, r.StatusCode == http.StatusNotFound)
}

func TestAppVolumeReadDegraded(t *testing.T) {
	s := newTestServer(t, false, "hd1")
	defer s.Close()

	r, body := readVolume(t, s, "md/mirror", "?offset=7&length=1")
	tests.Assert(t, r.StatusCode == http.StatusOK)
	tests.Assert(t, body[0] == testutils.Pattern(1, 7))
}

func TestAppVolumeReadUnreadable(t *testing.T) {
	s := newTestServer(t, false, "st0")
	defer s.Close()

	scans := s.app.Stats().Scans

	// half a stripe set is not a volume
	r, _ := readVolume(t, s, "md/stripe", "?length=1")
	tests.Assert(t, r.StatusCode == http.StatusNotFound, r.StatusCode)

	stats := s.app.Stats()
	tests.Assert(t, stats.Reads == 0)
	tests.Assert(t, stats.Scans == scans+1)
}

func TestAppVolumeWrite(t *testing.T) {
	s := newTestServer(t, false, "hd0", "hd1")
	defer s.Close()

	req, err := http.NewRequest("PUT", s.url("volumes", "md/mirror", "data"), nil)
	tests.Assert(t, err == nil)
	r, err := http.DefaultClient.Do(req)
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusNotImplemented)

	req, err = http.NewRequest("PUT", s.url("volumes", "md/nothere", "data"), nil)
	tests.Assert(t, err == nil)
	r, err = http.DefaultClient.Do(req)
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusNotFound)
}

func cryptoCheck(t *testing.T, s *testServer, name string) (int, *api.CryptoCheckResponse) {
	r, err := http.Get(s.url("volumes", name, "cryptocheck"))
	tests.Assert(t, err == nil)
	if r.StatusCode != http.StatusOK {
		r.Body.Close()
		return r.StatusCode, nil
	}
	var check api.CryptoCheckResponse
	err = utils.GetJsonFromResponse(r, &check)
	tests.Assert(t, err == nil)
	return r.StatusCode, &check
}

func TestAppVolumeCryptoCheck(t *testing.T) {
	s := newTestServer(t, false, "hd0", "hd1", "crypt0", "crypt1")
	defer s.Close()

	status, check := cryptoCheck(t, s, "md/secret")
	tests.Assert(t, status == http.StatusOK)
	tests.Assert(t, check.Encrypted)
	tests.Assert(t, check.Examined == 2)
	tests.Assert(t, check.Message == "md/secret is encrypted (2 pvs examined)\n", check.Message)

	status, check = cryptoCheck(t, s, "md/mirror")
	tests.Assert(t, status == http.StatusOK)
	tests.Assert(t, !check.Encrypted)
	tests.Assert(t, check.Examined == 1)
	tests.Assert(t, check.Message == "md/mirror is unencrypted (1 pv examined)\n", check.Message)

	status, _ = cryptoCheck(t, s, "md/nothere")
	tests.Assert(t, status == http.StatusNotFound)
}
