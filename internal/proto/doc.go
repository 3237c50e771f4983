// Package proto declares the zkvault profile service for gRPC.
//
// The service has no generated stubs: requests and responses are
// google.protobuf.Struct messages with string fields, and the descriptor,
// client and registration helpers below follow the shape protoc-gen-go-grpc
// would emit. The server only ever stores a salt and a canary ciphertext; it
// never receives key material or plaintext.
//
//	service ProfileService {
//	  rpc GetProfile(Struct{user})                            returns (Struct{user, salt, canary_iv, canary_ciphertext});
//	  rpc SetSalt(Struct{user, salt})                         returns (Empty);
//	  rpc SetCanary(Struct{user, canary_iv, canary_ciphertext}) returns (Empty);
//	}
package proto
