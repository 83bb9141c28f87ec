package brick

import "fmt"

type deserializer[T any] interface {
	*T
	Deserialize(data []byte) error
}

func deserialize[T any, PT deserializer[T]](kind string, data []byte) (*T, error) {
	var v T
	if err := PT(&v).Deserialize(data); err != nil {
		return nil, fmt.Errorf("failed to deserialize %s: %w", kind, err)
	}
	return &v, nil
}

func DeserializeMarketplace(data []byte) (*Marketplace, error) {
	return deserialize[Marketplace]("marketplace", data)
}

func DeserializeProduct(data []byte) (*Product, error) {
	return deserialize[Product]("product", data)
}

func DeserializeGovernance(data []byte) (*Governance, error) {
	return deserialize[Governance]("governance", data)
}

func DeserializeReward(data []byte) (*Reward, error) {
	return deserialize[Reward]("reward", data)
}

func DeserializeBonus(data []byte) (*Bonus, error) {
	return deserialize[Bonus]("bonus", data)
}

func DeserializePayment(data []byte) (*Payment, error) {
	return deserialize[Payment]("payment", data)
}

func DeserializeRequest(data []byte) (*Request, error) {
	return deserialize[Request]("request", data)
}

func DeserializePurchaseCounter(data []byte) (*PurchaseCounter, error) {
	return deserialize[PurchaseCounter]("purchase counter", data)
}
