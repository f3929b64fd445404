package mongo

import "go.mongodb.org/mongo-driver/bson"

// $jsonSchema validators applied at collection creation. They guard the
// invariants the application also enforces so that out-of-band writes
// cannot corrupt the data set.

func labSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"name", "active"},
			"properties": bson.M{
				"name": bson.M{
					"bsonType":  "string",
					"minLength": 2,
					"maxLength": 120,
				},
				"capacity": bson.M{
					"bsonType": "int",
					"minimum":  0,
					"maximum":  1000,
				},
				"equipment_count": bson.M{
					"bsonType": "int",
					"minimum":  0,
					"maximum":  1000,
				},
				"active": bson.M{
					"bsonType": "bool",
				},
			},
		},
	}
}

func reservationSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"lab_id", "requester_id", "start_time", "end_time", "title", "status"},
			"properties": bson.M{
				"lab_id": bson.M{
					"bsonType": "string",
				},
				"requester_id": bson.M{
					"bsonType": "string",
				},
				"start_time": bson.M{
					"bsonType": "date",
				},
				"end_time": bson.M{
					"bsonType": "date",
				},
				"title": bson.M{
					"bsonType":  "string",
					"minLength": 2,
					"maxLength": 160,
				},
				"status": bson.M{
					"enum": []string{"pending", "approved", "rejected", "needs_changes", "cancelled"},
				},
				"status_reason": bson.M{
					"bsonType":  "string",
					"maxLength": 2000,
				},
			},
		},
	}
}

func statusHistorySchema() bson.M {
	statuses := []string{"pending", "approved", "rejected", "needs_changes", "cancelled"}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"reservation_id", "from_status", "to_status", "occurred_at"},
			"properties": bson.M{
				"reservation_id": bson.M{
					"bsonType": "string",
				},
				"from_status": bson.M{
					"enum": statuses,
				},
				"to_status": bson.M{
					"enum": statuses,
				},
				"occurred_at": bson.M{
					"bsonType": "date",
				},
			},
		},
	}
}

func labLockSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"lab_id", "expires_at"},
			"properties": bson.M{
				"lab_id": bson.M{
					"bsonType": "string",
				},
				"expires_at": bson.M{
					"bsonType": "date",
				},
			},
		},
	}
}

func planSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"author_id", "title"},
			"properties": bson.M{
				"author_id": bson.M{
					"bsonType": "string",
				},
				"title": bson.M{
					"bsonType": "string",
				},
				"version": bson.M{
					"bsonType": "int",
					"minimum":  1,
				},
			},
		},
	}
}
