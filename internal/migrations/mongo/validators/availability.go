package validators

import "go.mongodb.org/mongo-driver/bson"

var AvailabilityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"offer_id",
			"date_from",
			"date_until",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"offer_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date_from": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{2}\.\d{2}\.\d{4}$`,
			},

			"date_until": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{2}\.\d{2}\.\d{4}$`,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
