package proxy

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func FuzzGetProxy(f *testing.F) {
	f.Add(uint32(1), uint32(10))
	f.Fuzz(func(t *testing.T, index uint32, urlCounts uint32) {
		if urlCounts > 1<<12 {
			t.Skip()
		}

		r := roundRobinSwitcher{}
		r.index = index
		r.proxyURLs = make([]*url.URL, urlCounts)

		for i := 0; i < int(urlCounts); i++ {
			r.proxyURLs[i] = &url.URL{}
			r.proxyURLs[i].Host = strconv.Itoa(i)
		}

		p, err := r.GetProxy(nil)
		if err != nil && strings.Contains(err.Error(), "empty proxy urls") {
			t.Skip()
		}

		assert.Nil(t, err)

		e := r.proxyURLs[index%urlCounts]

		if !reflect.DeepEqual(p, e) {
			t.Fail()
		}
	})
}

func TestRoundRobinProxySwitcher(t *testing.T) {
	_, err := RoundRobinProxySwitcher()
	assert.Error(t, err)

	p, err := RoundRobinProxySwitcher("http://127.0.0.1:7890", "127.0.0.1:7891")
	require.NoError(t, err)

	var hosts []string
	for i := 0; i < 3; i++ {
		u, err := p(nil)
		require.NoError(t, err)
		hosts = append(hosts, u.Scheme+"://"+u.Host)
	}

	assert.Equal(t, []string{"http://127.0.0.1:7890", "http://127.0.0.1:7891", "http://127.0.0.1:7890"}, hosts)
}
