package mongo

import (
	"fmt"
	"reflect"

	"alcyxob/gym-admin/internal/calendar"

	"cloud.google.com/go/civil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var civilDateType = reflect.TypeOf(civil.Date{})

// NewRegistry returns the default BSON registry extended with a codec that
// stores civil.Date as a YYYY-MM-DD string. String order equals date order,
// which the "most recent first" sorts rely on.
func NewRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(civilDateType, bsoncodec.ValueEncoderFunc(encodeCivilDate))
	reg.RegisterTypeDecoder(civilDateType, bsoncodec.ValueDecoderFunc(decodeCivilDate))
	return reg
}

func encodeCivilDate(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != civilDateType {
		return bsoncodec.ValueEncoderError{
			Name:     "CivilDateEncodeValue",
			Types:    []reflect.Type{civilDateType},
			Received: val,
		}
	}
	d := val.Interface().(civil.Date)
	return vw.WriteString(calendar.FormatLocalDate(d))
}

func decodeCivilDate(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != civilDateType {
		return bsoncodec.ValueDecoderError{
			Name:     "CivilDateDecodeValue",
			Types:    []reflect.Type{civilDateType},
			Received: val,
		}
	}

	switch vr.Type() {
	case bsontype.String:
		s, err := vr.ReadString()
		if err != nil {
			return err
		}
		d, err := calendar.ParseLocalDate(s)
		if err != nil {
			return err
		}
		val.Set(reflect.ValueOf(d))
		return nil
	case bsontype.Null:
		val.Set(reflect.Zero(civilDateType))
		return vr.ReadNull()
	default:
		return fmt.Errorf("cannot decode BSON %s into civil.Date", vr.Type())
	}
}
