package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestBroadcaster(t *testing.T) *RealtimeBroadcaster {
	t.Helper()
	var config model.Config
	config.RealtimeBroadcaster.OutputDir = t.TempDir()
	rb, err := NewRealtimeBroadcaster(config)
	require.NoError(t, err)
	return rb
}

func TestRealtimeBroadcasterWritesFiles(t *testing.T) {
	rb := newTestBroadcaster(t)
	agents := testAgents()
	statusMap := map[model.Agent]model.Status{*agents[0]: model.S_ALIVE, *agents[1]: model.S_ALIVE, *agents[2]: model.S_DEAD}

	rb.TrackStartGame("g3")
	list, err := os.ReadFile(filepath.Join(rb.OutputDir(), "games.json"))
	require.NoError(t, err)
	assert.Equal(t, "g3", gjson.GetBytes(list, "0.id").String())

	rb.Broadcast(util.NewBroadcastPacket(model.Event{GameID: "g3", Idx: 1, Phase: model.P_DAY, Kind: model.E_TALK, From: agents[1], Text: "hi"}, agents, statusMap))
	rb.Broadcast(util.NewBroadcastPacket(model.Event{GameID: "g3", Idx: 2, Phase: model.P_DAY, Kind: model.E_VOTE, From: agents[1], To: agents[0]}, agents, statusMap))
	rb.TrackEndGame("g3")

	data, err := os.ReadFile(filepath.Join(rb.OutputDir(), "g3.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "talk", gjson.Get(lines[0], "event").String())
	assert.Equal(t, int64(2), gjson.Get(lines[0], "bubble_idx").Int())
	assert.False(t, gjson.Get(lines[0], "agents.2.is_alive").Bool())
	assert.Equal(t, int64(1), gjson.Get(lines[1], "to_idx").Int())

	list, err = os.ReadFile(filepath.Join(rb.OutputDir(), "games.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(list))
}

func TestRealtimeBroadcasterSubscribe(t *testing.T) {
	rb := newTestBroadcaster(t)
	feed, cancel := rb.Subscribe()

	rb.Broadcast(model.BroadcastPacket{Id: "live", Idx: 7, Event: "status"})
	select {
	case data := <-feed:
		assert.Equal(t, int64(7), gjson.GetBytes(data, "idx").Int())
	case <-time.After(time.Second):
		t.Fatal("no packet received")
	}

	cancel()
	cancel()
	_, ok := <-feed
	assert.False(t, ok)
	rb.Broadcast(model.BroadcastPacket{Id: "live", Idx: 8})
}

func TestRealtimeBroadcasterDropsWhenFull(t *testing.T) {
	rb := newTestBroadcaster(t)
	feed, cancel := rb.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		rb.Broadcast(model.BroadcastPacket{Id: "live", Idx: i})
	}
	assert.Len(t, feed, subscriberBuffer)
}
