package ua_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/registry"
	"github.com/rcarmo/go-opcua/internal/ua"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	ua.RegisterAll(reg)
	return reg
}

func TestStatusCodeSeverity(t *testing.T) {
	assert.True(t, ua.Good.IsGood())
	assert.False(t, ua.Good.IsBad())
	assert.True(t, ua.BadSecurityChecksFailed.IsBad())
	assert.False(t, ua.BadSecurityChecksFailed.IsGood())
	assert.Equal(t, "BadCertificateInvalid", ua.BadCertificateInvalid.String())
}

func TestOpenSecureChannelRoundTripViaRegistry(t *testing.T) {
	reg := newRegistry(t)

	req := &ua.OpenSecureChannelRequest{
		RequestHeader:         ua.RequestHeader{Timestamp: time.Now().UTC(), RequestHandle: 1, TimeoutHint: 5000},
		ClientProtocolVersion: 0,
		RequestType:           ua.SecurityTokenRequestTypeIssue,
		SecurityMode:          ua.MessageSecurityModeNone,
		ClientNonce:           nil,
		RequestedLifetime:     3_600_000,
	}

	var buf bytes.Buffer
	require.NoError(t, codec.NewEncoderWithRegistry(&buf, reg).WriteMessage(req))

	_, body, err := codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg).ReadMessage()
	require.NoError(t, err)

	got, ok := body.(*ua.OpenSecureChannelRequest)
	require.True(t, ok)
	assert.Equal(t, req.RequestedLifetime, got.RequestedLifetime)
	assert.Equal(t, req.RequestType, got.RequestType)
}

func TestOpenSecureChannelResponseRoundTrip(t *testing.T) {
	reg := newRegistry(t)

	resp := &ua.OpenSecureChannelResponse{
		ResponseHeader:        ua.ResponseHeader{Timestamp: time.Now().UTC(), ServiceResult: ua.Good},
		ServerProtocolVersion: 0,
		SecurityToken: ua.ChannelSecurityToken{
			ChannelId:       42,
			TokenId:         7,
			CreatedAt:       time.Now().UTC(),
			RevisedLifetime: 3_600_000,
		},
		ServerNonce: bytes.Repeat([]byte{9}, 32),
	}

	var buf bytes.Buffer
	require.NoError(t, codec.NewEncoderWithRegistry(&buf, reg).WriteMessage(resp))

	_, body, err := codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg).ReadMessage()
	require.NoError(t, err)

	got, ok := body.(*ua.OpenSecureChannelResponse)
	require.True(t, ok)
	assert.EqualValues(t, 42, got.SecurityToken.ChannelId)
	assert.EqualValues(t, 7, got.SecurityToken.TokenId)
	assert.Equal(t, resp.ServerNonce, got.ServerNonce)
	assert.True(t, got.ResponseHeader.ServiceResult.IsGood())
}

func TestCreateSessionAndActivateSessionRoundTrip(t *testing.T) {
	reg := newRegistry(t)

	create := &ua.CreateSessionRequest{
		RequestHeader:           ua.RequestHeader{Timestamp: time.Now().UTC()},
		ClientDescription:       ua.ApplicationDescription{ApplicationUri: "urn:test:client", ApplicationType: ua.ApplicationTypeClient},
		ServerUri:               "",
		EndpointUrl:             "opc.tcp://localhost:4840",
		SessionName:             "test-session",
		ClientNonce:             bytes.Repeat([]byte{1}, 32),
		RequestedSessionTimeout: 1_200_000,
		MaxResponseMessageSize:  1 << 20,
	}

	var buf bytes.Buffer
	require.NoError(t, codec.NewEncoderWithRegistry(&buf, reg).WriteMessage(create))
	_, body, err := codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg).ReadMessage()
	require.NoError(t, err)
	got := body.(*ua.CreateSessionRequest)
	assert.Equal(t, create.SessionName, got.SessionName)
	assert.Equal(t, create.ClientNonce, got.ClientNonce)

	userToken, err := codec.NewExtensionObject(reg, &ua.AnonymousIdentityToken{PolicyId: "anonymous"})
	require.NoError(t, err)

	activate := &ua.ActivateSessionRequest{
		RequestHeader:     ua.RequestHeader{Timestamp: time.Now().UTC()},
		ClientSignature:   ua.SignatureData{},
		LocaleIds:         []string{"en"},
		UserIdentityToken: userToken,
	}

	buf.Reset()
	require.NoError(t, codec.NewEncoderWithRegistry(&buf, reg).WriteMessage(activate))
	_, body, err = codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg).ReadMessage()
	require.NoError(t, err)
	gotActivate := body.(*ua.ActivateSessionRequest)
	require.NotNil(t, gotActivate.UserIdentityToken.Body)
	anon, ok := gotActivate.UserIdentityToken.Body.(*ua.AnonymousIdentityToken)
	require.True(t, ok)
	assert.Equal(t, "anonymous", anon.PolicyId)
}

func TestReadRequestResponseRoundTrip(t *testing.T) {
	reg := newRegistry(t)

	req := &ua.ReadRequest{
		RequestHeader:      ua.RequestHeader{Timestamp: time.Now().UTC()},
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		NodesToRead: []ua.ReadValueId{
			{NodeId: codec.NewNumericNodeId(0, 2255), AttributeId: 13},
			{NodeId: codec.NewNumericNodeId(0, 2254), AttributeId: 13},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, codec.NewEncoderWithRegistry(&buf, reg).WriteMessage(req))
	_, body, err := codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg).ReadMessage()
	require.NoError(t, err)
	got := body.(*ua.ReadRequest)
	require.Len(t, got.NodesToRead, 2)
	assert.EqualValues(t, 2255, got.NodesToRead[0].NodeId.Numeric)

	val := codec.NewVariant(codec.VariantString, "urn:test:namespace")
	resp := &ua.ReadResponse{
		ResponseHeader: ua.ResponseHeader{Timestamp: time.Now().UTC(), ServiceResult: ua.Good},
		Results:        []codec.DataValue{{Value: &val}},
	}
	buf.Reset()
	require.NoError(t, codec.NewEncoderWithRegistry(&buf, reg).WriteMessage(resp))
	_, body, err = codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg).ReadMessage()
	require.NoError(t, err)
	gotResp := body.(*ua.ReadResponse)
	require.Len(t, gotResp.Results, 1)
	assert.Equal(t, "urn:test:namespace", gotResp.Results[0].Value.Scalar)
}

func TestPublishRequestResponseRoundTrip(t *testing.T) {
	reg := newRegistry(t)

	req := &ua.PublishRequest{
		RequestHeader: ua.RequestHeader{Timestamp: time.Now().UTC()},
		SubscriptionAcknowledgements: []ua.SubscriptionAcknowledgement{
			{SubscriptionId: 1, SequenceNumber: 5},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, codec.NewEncoderWithRegistry(&buf, reg).WriteMessage(req))
	_, body, err := codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg).ReadMessage()
	require.NoError(t, err)
	got := body.(*ua.PublishRequest)
	require.Len(t, got.SubscriptionAcknowledgements, 1)
	assert.EqualValues(t, 5, got.SubscriptionAcknowledgements[0].SequenceNumber)

	resp := &ua.PublishResponse{
		ResponseHeader:           ua.ResponseHeader{Timestamp: time.Now().UTC(), ServiceResult: ua.Good},
		SubscriptionId:           1,
		AvailableSequenceNumbers: []uint32{5, 6},
		NotificationMessage: ua.NotificationMessage{
			SequenceNumber: 6,
			PublishTime:    time.Now().UTC(),
		},
		Results: []ua.StatusCode{ua.Good},
	}
	buf.Reset()
	require.NoError(t, codec.NewEncoderWithRegistry(&buf, reg).WriteMessage(resp))
	_, body, err = codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg).ReadMessage()
	require.NoError(t, err)
	gotResp := body.(*ua.PublishResponse)
	assert.EqualValues(t, 6, gotResp.NotificationMessage.SequenceNumber)
	assert.Equal(t, []uint32{5, 6}, gotResp.AvailableSequenceNumbers)
}
