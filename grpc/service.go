// Package grpc names the flashchat.v1.ChatStore service shared by the
// store server and its remote clients.
//
// Messages are protobuf well-known types: requests and replies are
// google.protobuf.Struct documents, Append replies google.protobuf.Empty.
package grpc

const (
	ServiceName = "flashchat.v1.ChatStore"

	RegisterMethod  = "/" + ServiceName + "/Register"
	LoginMethod     = "/" + ServiceName + "/Login"
	AppendMethod    = "/" + ServiceName + "/Append"
	SubscribeMethod = "/" + ServiceName + "/Subscribe"
)

// Document fields.
const (
	FieldRoom     = "room"
	FieldOrderBy  = "orderBy"
	FieldSender   = "sender"
	FieldBody     = "body"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldToken    = "token"
	FieldRecords  = "records"
)

// PublicMethods can be called without a bearer token.
var PublicMethods = []string{RegisterMethod, LoginMethod}
