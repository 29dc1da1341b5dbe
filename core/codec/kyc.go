package codec

import "digichain/core/types"

var kycParamsArgs = tuple("string", "string", "string", "string", "string", "string")

// KYCParams is the §4.1 KYCParams schema.
type KYCParams struct {
	Name    string
	Aadhar  string
	UpiID   string
	Mobile  string
	Address string
	Country string
}

func EncodeKYCParams(p KYCParams) (types.HexString, error) {
	packed, err := kycParamsArgs.Pack(p.Name, p.Aadhar, p.UpiID, p.Mobile, p.Address, p.Country)
	if err != nil {
		return nil, decodeErr("KYCParams", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeKYCParams(data types.HexString) (KYCParams, error) {
	values, err := kycParamsArgs.Unpack(data.Bytes())
	if err != nil {
		return KYCParams{}, decodeErr("KYCParams", err)
	}
	if len(values) != 6 {
		return KYCParams{}, decodeErr("KYCParams", errWrongArity(6, len(values)))
	}
	return KYCParams{
		Name:    values[0].(string),
		Aadhar:  values[1].(string),
		UpiID:   values[2].(string),
		Mobile:  values[3].(string),
		Address: values[4].(string),
		Country: values[5].(string),
	}, nil
}
