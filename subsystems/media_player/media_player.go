package media_player

import (
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/models/mp"
	"github.com/Artiqlate/callisto/utils"
)

const (
	MediaPlayerSubsystemName = "mp"
)

var (
	// PacketTypeUpdate carries player state and player lists.
	PacketTypeUpdate = MPMethod("update")
	// PacketTypeRequest carries requests and control commands.
	PacketTypeRequest = MPMethod("request")
)

func MPMethod(method string) string {
	return utils.GenerateMethod(MediaPlayerSubsystemName, method)
}

// -- PACKET BUILDERS

func newUpdatePacket(body models.Body) *models.Packet {
	return models.NewPacket(PacketTypeUpdate, body)
}

func newRequestPacket(body models.Body) *models.Packet {
	return models.NewPacket(PacketTypeRequest, body)
}

func requestPlayerListPacket() *models.Packet {
	return newRequestPacket(models.Body{mp.FieldRequestList: true})
}

func requestUpdatePacket(name string) *models.Packet {
	return newRequestPacket(models.Body{
		mp.FieldPlayer:        name,
		mp.FieldRequestNow:    true,
		mp.FieldRequestVolume: true,
	})
}

func requestAlbumArtPacket(name string, artUrl string) *models.Packet {
	return newRequestPacket(models.Body{
		mp.FieldPlayer:      name,
		mp.FieldAlbumArtUrl: artUrl,
	})
}

func playerListPacket(names []string, supportAlbumArt bool) *models.Packet {
	return newUpdatePacket(models.Body{
		mp.FieldPlayerList:      names,
		mp.FieldSupportAlbumArt: supportAlbumArt,
	})
}
