package infodata

import "fmt"

// Scope selects which host accessor answers a field.
type Scope int

const (
	// ScopeItem renders the item ID itself without asking the host.
	ScopeItem Scope = iota
	ScopeServer
	ScopeChannel
	ScopeClient
	// ScopeConnection reads connection info of the client being shown.
	ScopeConnection
	// ScopeOwnConnection reads connection info of our own client.
	ScopeOwnConnection
)

// Field is one "<Label> = <value>" line of the info text.
type Field struct {
	Label    string
	Scope    Scope
	Variable Variable

	// MaxLen truncates the rendered value to at most MaxLen bytes. Zero means no limit.
	MaxLen int

	// Settle delays the query so a freshly requested connection value can update.
	Settle bool
}

func str(name string) Variable { return Variable{Name: name, Kind: KindString} }
func num(name string) Variable { return Variable{Name: name, Kind: KindInt} }
func u64(name string) Variable { return Variable{Name: name, Kind: KindUint64} }
func dbl(name string) Variable { return Variable{Name: name, Kind: KindDouble} }

var serverFields = []Field{
	{Label: "ServerUID", Scope: ScopeServer, Variable: str("virtualserver_unique_identifier")},
	{Label: "Virtualserver ID", Scope: ScopeServer, Variable: u64("virtualserver_id")},
	{Label: "Serverip", Scope: ScopeOwnConnection, Variable: str("connection_server_ip")},
	{Label: "Virtualserver Port", Scope: ScopeServer, Variable: num("virtualserver_port")},
}

var channelFields = []Field{
	{Label: "Channel ID", Scope: ScopeItem},
	{Label: "Order ID", Scope: ScopeChannel, Variable: u64("channel_order")},
	{Label: "Phoetic Channelname", Scope: ScopeChannel, Variable: str("channel_name_phonetic")},
	{Label: "Codec Quality", Scope: ScopeChannel, Variable: num("channel_codec_quality")},
	{Label: "Permanent", Scope: ScopeChannel, Variable: num("channel_flag_permanent")},
	{Label: "Semi Permanent", Scope: ScopeChannel, Variable: num("channel_flag_semi_permanent")},
	{Label: "Default Channel", Scope: ScopeChannel, Variable: num("channel_flag_default")},
	{Label: "Password Protected", Scope: ScopeChannel, Variable: num("channel_flag_password")},
	{Label: "Codec Latency Factor", Scope: ScopeChannel, Variable: num("channel_codec_latency_factor")},
	{Label: "Unencrypted", Scope: ScopeChannel, Variable: num("channel_codec_is_unencrypted")},
	{Label: "Delete Delay", Scope: ScopeChannel, Variable: num("channel_delete_delay")},
	{Label: "Max Clients Unlimited", Scope: ScopeChannel, Variable: num("channel_flag_maxclients_unlimited")},
	{Label: "Max Family Clients Unlimited", Scope: ScopeChannel, Variable: num("channel_flag_maxfamilyclients_unlimited")},
	{Label: "Subscribed", Scope: ScopeChannel, Variable: num("channel_flag_are_subscribed")},
	{Label: "Needed Talk Power", Scope: ScopeChannel, Variable: num("channel_needed_talk_power")},
	{Label: "Forced Silence", Scope: ScopeChannel, Variable: num("channel_forced_silence")},
	{Label: "Icon ID", Scope: ScopeChannel, Variable: u64("channel_icon_id")},
	{Label: "Private", Scope: ScopeChannel, Variable: num("channel_flag_private")},
}

var clientFields = []Field{
	{Label: "Client ID", Scope: ScopeItem},
	{Label: "UID", Scope: ScopeClient, Variable: str("client_unique_identifier")},
	{Label: "DBID", Scope: ScopeClient, Variable: num("client_database_id")},
	{Label: "ServGroups", Scope: ScopeClient, Variable: str("client_servergroups"), MaxLen: 40},
	{Label: "AllConnects", Scope: ScopeClient, Variable: num("client_totalconnections")},
	{Label: "Ping", Scope: ScopeConnection, Variable: dbl("connection_ping"), Settle: true},
	{Label: "Phonetic Nickname", Scope: ScopeClient, Variable: str("client_nickname_phonetic")},
	{Label: "Client Version Sign", Scope: ScopeClient, Variable: str("client_version_sign")},
	{Label: "Client BadgetID", Scope: ScopeClient, Variable: str("client_badges")},
	{Label: "Talking", Scope: ScopeClient, Variable: num("client_flag_talking")},
	{Label: "Input Muted", Scope: ScopeClient, Variable: num("client_input_muted")},
	{Label: "Output Muted", Scope: ScopeClient, Variable: num("client_output_muted")},
	{Label: "Output Only Muted", Scope: ScopeClient, Variable: num("client_outputonly_muted")},
	{Label: "Input Hardware", Scope: ScopeClient, Variable: num("client_input_hardware")},
	{Label: "Output Hardware", Scope: ScopeClient, Variable: num("client_output_hardware")},
	{Label: "Recording", Scope: ScopeClient, Variable: num("client_is_recording")},
	{Label: "Channel Group ID", Scope: ScopeClient, Variable: u64("client_channel_group_id")},
	{Label: "Created", Scope: ScopeClient, Variable: u64("client_created")},
	{Label: "Last Connected", Scope: ScopeClient, Variable: u64("client_lastconnected")},
	{Label: "Away", Scope: ScopeClient, Variable: num("client_away")},
	{Label: "Away Message", Scope: ScopeClient, Variable: str("client_away_message")},
	{Label: "Client Type", Scope: ScopeClient, Variable: num("client_type")},
	{Label: "Avatar", Scope: ScopeClient, Variable: str("client_flag_avatar")},
	{Label: "Talk Power", Scope: ScopeClient, Variable: num("client_talk_power")},
	{Label: "Talker", Scope: ScopeClient, Variable: num("client_is_talker")},
	{Label: "Month Upload", Scope: ScopeClient, Variable: u64("client_month_bytes_uploaded")},
	{Label: "Month Download", Scope: ScopeClient, Variable: u64("client_month_bytes_downloaded")},
	{Label: "Total Upload", Scope: ScopeClient, Variable: u64("client_total_bytes_uploaded")},
	{Label: "Total Download", Scope: ScopeClient, Variable: u64("client_total_bytes_downloaded")},
	{Label: "Priority Speaker", Scope: ScopeClient, Variable: num("client_is_priority_speaker")},
	{Label: "Unread Messages", Scope: ScopeClient, Variable: num("client_unread_messages")},
	{Label: "Needed View Power", Scope: ScopeClient, Variable: num("client_needed_serverquery_view_power")},
	{Label: "Icon ID", Scope: ScopeClient, Variable: u64("client_icon_id")},
	{Label: "Channel Commander", Scope: ScopeClient, Variable: num("client_is_channel_commander")},
	{Label: "Country", Scope: ScopeClient, Variable: str("client_country")},
	{Label: "Inherited Channel Group Channel ID", Scope: ScopeClient, Variable: u64("client_channel_group_inherited_channel_id")},
	{Label: "Client metadata", Scope: ScopeClient, Variable: str("client_meta_data")},
}

// Fields returns the ordered field table for kind. The returned slice is a
// copy and may be modified by the caller.
func Fields(kind ItemKind) ([]Field, error) {
	var table []Field

	switch kind {
	case ItemServer:
		table = serverFields
	case ItemChannel:
		table = channelFields
	case ItemClient:
		table = clientFields
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidItemKind, int(kind))
	}

	return append([]Field(nil), table...), nil
}
