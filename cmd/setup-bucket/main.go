package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"task-tracker/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/spf13/pflag"
)

func main() {
	expireDays := pflag.Int("expire-days", 30, "delete snapshots older than this many days (0 disables the rule)")
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	s3 := cfg.Storage.S3
	prefix := strings.Trim(cfg.Snapshot.Prefix, "/") + "/"

	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("  Snapshot Bucket Setup")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("\nEndpoint: %s\n", s3.Endpoint)
	fmt.Printf("Bucket:   %s\n", s3.Bucket)
	fmt.Printf("Prefix:   %s\n", prefix)

	client, err := minio.New(s3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s3.AccessKey, s3.SecretKey, ""),
		Secure: s3.UseSSL,
		Region: s3.Region,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	exists, err := client.BucketExists(ctx, s3.Bucket)
	if err != nil {
		log.Fatalf("Failed to check bucket: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s3.Bucket, minio.MakeBucketOptions{Region: s3.Region}); err != nil {
			log.Fatalf("Failed to create bucket: %v", err)
		}
		fmt.Printf("\n✓ Bucket '%s' created\n", s3.Bucket)
	} else {
		fmt.Printf("\n✓ Bucket '%s' exists\n", s3.Bucket)
	}

	fmt.Println("\n--- Lifecycle ---")
	if *expireDays > 0 {
		rules := lifecycle.NewConfiguration()
		rules.Rules = []lifecycle.Rule{{
			ID:         "expire-task-snapshots",
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: prefix},
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(*expireDays)},
		}}
		if err := client.SetBucketLifecycle(ctx, s3.Bucket, rules); err != nil {
			log.Printf("⚠️  Warning: failed to set lifecycle rule: %v", err)
		} else {
			fmt.Printf("✓ Snapshots under %s expire after %d days\n", prefix, *expireDays)
		}
	} else {
		fmt.Println("Skipped (--expire-days=0)")
	}

	// Exercise the same calls the snapshot service makes.
	fmt.Println("\n--- Testing Permissions ---")
	testKey := prefix + ".setup-check"

	fmt.Print("PutObject... ")
	body := []byte("{}")
	if _, err := client.PutObject(ctx, s3.Bucket, testKey, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"}); err != nil {
		fmt.Printf("❌ %v\n", err)
	} else {
		fmt.Println("✓ OK")
	}

	fmt.Print("ListObjects... ")
	listOK := true
	for obj := range client.ListObjects(ctx, s3.Bucket, minio.ListObjectsOptions{Prefix: prefix, MaxKeys: 1}) {
		if obj.Err != nil {
			fmt.Printf("❌ %v\n", obj.Err)
			listOK = false
			break
		}
	}
	if listOK {
		fmt.Println("✓ OK")
	}

	fmt.Print("RemoveObject... ")
	if err := client.RemoveObject(ctx, s3.Bucket, testKey, minio.RemoveObjectOptions{}); err != nil {
		fmt.Printf("❌ %v\n", err)
	} else {
		fmt.Println("✓ OK")
	}

	fmt.Println("\n═══════════════════════════════════════════════════════════════")
	fmt.Println("  Setup Complete! Set STORAGE_TYPE=s3 to store snapshots here.")
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
