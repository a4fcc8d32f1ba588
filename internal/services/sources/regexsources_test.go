package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatherProxyPattern_ExtractsIPAndHexPort(t *testing.T) {
	body := `gp.insertPrx({"PROXY_IP":"11.22.33.44","PROXY_PORT":"1F90","PROXY_COUNTRY":"US"});`
	matches := gatherProxyPattern.FindAllStringSubmatch(body, -1)
	require.Len(t, matches, 1)
	assert.Equal(t, "11.22.33.44", matches[0][1])

	port, ok := parsePort(matches[0][2])
	require.True(t, ok)
	assert.Equal(t, uint16(8080), port)
}

func TestGatherProxyPattern_MatchesMultipleEntries(t *testing.T) {
	body := `gp.insertPrx({"PROXY_IP":"1.1.1.1","PROXY_PORT":"80"});gp.insertPrx({"PROXY_IP":"2.2.2.2","PROXY_PORT":"8080"});`
	matches := gatherProxyPattern.FindAllStringSubmatch(body, -1)
	require.Len(t, matches, 2)
	assert.Equal(t, "1.1.1.1", matches[0][1])
	assert.Equal(t, "2.2.2.2", matches[1][1])
}

func TestSpysOnePattern_ExtractsBareIPPort(t *testing.T) {
	body := "noise before 123.45.67.89:8080 noise after\nmore noise 9.8.7.6:3128 trailing"
	matches := spysOnePattern.FindAllStringSubmatch(body, -1)
	require.Len(t, matches, 2)
	assert.Equal(t, "123.45.67.89", matches[0][1])
	assert.Equal(t, "8080", matches[0][2])
	assert.Equal(t, "9.8.7.6", matches[1][1])
	assert.Equal(t, "3128", matches[1][2])
}

func TestSpysOnePattern_IgnoresMalformedOctets(t *testing.T) {
	body := "version 1.2:99999 is not an ip:port pair"
	matches := spysOnePattern.FindAllStringSubmatch(body, -1)
	assert.Empty(t, matches)
}

func TestGatherProxyAndSpysOneAdapter_IDs(t *testing.T) {
	assert.Equal(t, "gatherproxy", NewGatherProxyAdapter().ID())
	assert.Equal(t, "spys.one", NewSpysOneAdapter().ID())
}
