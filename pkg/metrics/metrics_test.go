package metrics

import (
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gorilla/mux"

	"github.com/heketi/diskfilter/pkg/diskfilter/api"
)

type testApp struct {
	inventory *api.InventoryResponse
	stats     api.StatsInfo
	err       error
}

func (t *testApp) SetRoutes(router *mux.Router) error {
	return nil
}

func (t *testApp) Inventory() (*api.InventoryResponse, error) {
	return t.inventory, t.err
}

func (t *testApp) Stats() api.StatsInfo {
	return t.stats
}

func (t *testApp) Close() {}

func (t *testApp) Auth(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
}

func getMetrics(t *testing.T, ta *testApp) []byte {
	ts := httptest.NewServer(NewMetricsHandler(ta))
	defer ts.Close()

	res, err := http.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	body, err := ioutil.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestMetricsEndpoint(t *testing.T) {
	ta := &testApp{
		inventory: &api.InventoryResponse{
			Groups: []api.GroupInfo{
				{
					Name: "md/data",
					Members: []api.MemberInfo{
						{Name: "0", Disk: "hd0"},
						{Name: "1"},
					},
					Volumes: []api.VolumeInfo{
						{Name: "md/data", Size: 4096, Readable: true, Degraded: true},
					},
				},
			},
		},
		stats: api.StatsInfo{Reads: 7, Recoveries: 2},
	}

	body := getMetrics(t, ta)
	for _, expected := range []string{
		"diskfilter_up 1",
		"diskfilter_group_count 1",
		"diskfilter_volumes_count{group=\"md/data\"} 1",
		"diskfilter_member_missing_count{group=\"md/data\"} 1",
		"diskfilter_volume_size_sectors{group=\"md/data\",volume=\"md/data\"} 4096",
		"diskfilter_volume_degraded{group=\"md/data\",volume=\"md/data\"} 1",
		"diskfilter_reads_total 7",
		"diskfilter_recoveries_total 2",
	} {
		match, err := regexp.Match(regexp.QuoteMeta(expected), body)
		if !match || err != nil {
			t.Fatalf("%v should be present in the metrics output", expected)
		}
	}
}

func TestMetricsEndpointDown(t *testing.T) {
	ta := &testApp{err: errors.New("broken")}

	body := getMetrics(t, ta)
	match, err := regexp.Match("diskfilter_up 0", body)
	if !match || err != nil {
		t.Fatal("diskfilter_up 0 should be present in the metrics output")
	}
	match, _ = regexp.Match("diskfilter_group_count", body)
	if match {
		t.Fatal("diskfilter_group_count should not be reported when down")
	}
}
