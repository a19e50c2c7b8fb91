// ABOUTME: Outbound request methods implementing manager.Transport (§6 capability set)
package transport

import "github.com/go-syncplay/syncplay/internal/wire"

func (c *Client) RequestSyncPlayUnpause() error {
	return c.send("RequestSyncPlayUnpause", struct{}{})
}

func (c *Client) RequestSyncPlayPause() error {
	return c.send("RequestSyncPlayPause", struct{}{})
}

func (c *Client) RequestSyncPlaySeek(positionTicks int64) error {
	return c.send("RequestSyncPlaySeek", struct {
		PositionTicks int64 `json:"PositionTicks"`
	}{positionTicks})
}

func (c *Client) RequestSyncPlayStop() error {
	return c.send("RequestSyncPlayStop", struct{}{})
}

func (c *Client) RequestSyncPlayPlay(playingQueue []string, playingItemPosition int, startPositionTicks int64) error {
	return c.send("RequestSyncPlayPlay", struct {
		PlayingQueue        []string `json:"PlayingQueue"`
		PlayingItemPosition int      `json:"PlayingItemPosition"`
		StartPositionTicks  int64    `json:"StartPositionTicks"`
	}{playingQueue, playingItemPosition, startPositionTicks})
}

func (c *Client) RequestSyncPlaySetPlaylistItem(playlistItemID string) error {
	return c.send("RequestSyncPlaySetPlaylistItem", struct {
		PlaylistItemID string `json:"PlaylistItemId"`
	}{playlistItemID})
}

func (c *Client) RequestSyncPlayRemoveFromPlaylist(playlistItemIDs []string) error {
	return c.send("RequestSyncPlayRemoveFromPlaylist", struct {
		PlaylistItemIDs []string `json:"PlaylistItemIds"`
	}{playlistItemIDs})
}

func (c *Client) RequestSyncPlayMovePlaylistItem(playlistItemID string, newIndex int) error {
	return c.send("RequestSyncPlayMovePlaylistItem", struct {
		PlaylistItemID string `json:"PlaylistItemId"`
		NewIndex       int    `json:"NewIndex"`
	}{playlistItemID, newIndex})
}

func (c *Client) RequestSyncPlayQueue(itemIDs []string, mode string) error {
	return c.send("RequestSyncPlayQueue", struct {
		ItemIDs []string `json:"ItemIds"`
		Mode    string   `json:"Mode"`
	}{itemIDs, mode})
}

func (c *Client) RequestSyncPlayNextTrack(playlistItemID string) error {
	return c.send("RequestSyncPlayNextTrack", struct {
		PlaylistItemID string `json:"PlaylistItemId"`
	}{playlistItemID})
}

func (c *Client) RequestSyncPlayPreviousTrack(playlistItemID string) error {
	return c.send("RequestSyncPlayPreviousTrack", struct {
		PlaylistItemID string `json:"PlaylistItemId"`
	}{playlistItemID})
}

func (c *Client) RequestSyncPlaySetRepeatMode(mode wire.RepeatMode) error {
	return c.send("RequestSyncPlaySetRepeatMode", struct {
		Mode wire.RepeatMode `json:"Mode"`
	}{mode})
}

func (c *Client) RequestSyncPlaySetShuffleMode(mode wire.ShuffleMode) error {
	return c.send("RequestSyncPlaySetShuffleMode", struct {
		Mode wire.ShuffleMode `json:"Mode"`
	}{mode})
}

func (c *Client) RequestSyncPlayBuffering(req wire.BufferingRequest) error {
	return c.send("RequestSyncPlayBuffering", req)
}

func (c *Client) RequestSyncPlaySetIgnoreWait(ignoreWait bool) error {
	return c.send("RequestSyncPlaySetIgnoreWait", struct {
		IgnoreWait bool `json:"IgnoreWait"`
	}{ignoreWait})
}

func (c *Client) SendSyncPlayPing(ping int64) error {
	return c.send("SendSyncPlayPing", wire.PingRequest{Ping: ping})
}
