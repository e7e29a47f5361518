package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/civic-relay/internal/domain"
)

// ComplaintRepo provides typed DynamoDB operations for the complaints table.
// PK: reference_id. A `user_email-index` GSI serves per-citizen lookups.
type ComplaintRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewComplaintRepo(client *dynamodb.Client, tableName string) *ComplaintRepo {
	return &ComplaintRepo{client: client, tableName: tableName}
}

func (r *ComplaintRepo) Put(ctx context.Context, c *domain.Complaint) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal complaint: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put complaint: %v: %w", err, domain.ErrUpstream)
	}
	return nil
}

func (r *ComplaintRepo) Get(ctx context.Context, referenceID string) (*domain.Complaint, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("reference_id", referenceID),
	})
	if err != nil {
		return nil, fmt.Errorf("get complaint: %v: %w", err, domain.ErrUpstream)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("complaint not found: %w", domain.ErrNotFound)
	}
	var c domain.Complaint
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByEmail returns all complaints filed under the given reporter email.
func (r *ComplaintRepo) ListByEmail(ctx context.Context, email string) ([]domain.Complaint, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_email-index"),
		KeyConditionExpression: aws.String("#e = :email"),
		ExpressionAttributeNames: map[string]string{
			"#e": "user_email",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query complaints by email: %v: %w", err, domain.ErrUpstream)
	}
	var cs []domain.Complaint
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// UpdateStatus sets the complaint workflow status.
func (r *ComplaintRepo) UpdateStatus(ctx context.Context, referenceID, status string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{"status": status})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("reference_id", referenceID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return fmt.Errorf("update complaint status: %v: %w", err, domain.ErrUpstream)
	}
	return nil
}
